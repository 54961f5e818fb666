package handlers

// Metadata keys read by the record handlers in addition to the mq_*
// descriptor keys.
const (
	// MetadataKeyBlobRef holds the Blob Store id of a payload kept out of band.
	MetadataKeyBlobRef = "mq_blob_ref"

	// MetadataKeyBlobCollection overrides the configured Blob Store collection.
	MetadataKeyBlobCollection = "mq_blob_collection"
)
