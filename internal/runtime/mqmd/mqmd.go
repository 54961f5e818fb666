// Package mqmd models the MQ message descriptor carried with every queue
// message and renders it as record fields.
package mqmd

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/drblury/mqflow/internal/runtime/describe"
	"github.com/drblury/mqflow/internal/runtime/extract"
	"github.com/drblury/mqflow/internal/runtime/format"
	"github.com/drblury/mqflow/internal/runtime/metadata"
)

// Prefix is shared by every descriptor metadata key.
const Prefix = "mq_"

// Metadata keys carrying descriptor fields. Binary fields are hex encoded.
const (
	KeyStrucID          = "mq_struc_id"
	KeyVersion          = "mq_version"
	KeyReport           = "mq_report"
	KeyMsgType          = "mq_msg_type"
	KeyExpiry           = "mq_expiry"
	KeyFeedback         = "mq_feedback"
	KeyEncoding         = "mq_encoding"
	KeyCodedCharSetID   = "mq_ccsid"
	KeyFormat           = "mq_format"
	KeyPriority         = "mq_priority"
	KeyPersistence      = "mq_persistence"
	KeyMsgID            = "mq_msg_id"
	KeyCorrelID         = "mq_correl_id"
	KeyBackoutCount     = "mq_backout_count"
	KeyReplyToQ         = "mq_reply_to_q"
	KeyReplyToQMgr      = "mq_reply_to_qmgr"
	KeyUserIdentifier   = "mq_user_identifier"
	KeyAccountingToken  = "mq_accounting_token"
	KeyApplIdentityData = "mq_appl_identity_data"
	KeyPutApplType      = "mq_put_appl_type"
	KeyPutApplName      = "mq_put_appl_name"
	KeyPutDate          = "mq_put_date"
	KeyPutTime          = "mq_put_time"
	KeyApplOriginData   = "mq_appl_origin_data"
	KeyGroupID          = "mq_group_id"
	KeyMsgSeqNumber     = "mq_msg_seq_number"
	KeyOffset           = "mq_offset"
	KeyMsgFlags         = "mq_msg_flags"
	KeyOriginalLength   = "mq_original_length"
)

// Descriptor is the MQMD of one message.
type Descriptor struct {
	StrucID          string
	Version          int64
	Report           int64
	MsgType          int64
	Expiry           int64
	Feedback         int64
	Encoding         int64
	CodedCharSetID   int64
	Format           string
	Priority         int64
	Persistence      int64
	MsgID            []byte
	CorrelID         []byte
	BackoutCount     int64
	ReplyToQ         string
	ReplyToQMgr      string
	UserIdentifier   string
	AccountingToken  []byte
	ApplIdentityData string
	PutApplType      int64
	PutApplName      string
	PutDate          string
	PutTime          string
	ApplOriginData   string
	GroupID          []byte
	MsgSeqNumber     int64
	Offset           int64
	MsgFlags         int64
	OriginalLength   int64
}

// FromMetadata builds a descriptor from mq_* metadata. It returns nil when
// no descriptor key is present; absent keys leave zero values.
func FromMetadata(md metadata.Metadata) *Descriptor {
	if len(md.WithPrefix(Prefix)) == 0 {
		return nil
	}

	num := func(key string) int64 {
		n, _ := md.Int(key)
		return n
	}
	str := func(key string) string {
		return strings.TrimRight(md[key], " \x00")
	}

	return &Descriptor{
		StrucID:          str(KeyStrucID),
		Version:          num(KeyVersion),
		Report:           num(KeyReport),
		MsgType:          num(KeyMsgType),
		Expiry:           num(KeyExpiry),
		Feedback:         num(KeyFeedback),
		Encoding:         num(KeyEncoding),
		CodedCharSetID:   num(KeyCodedCharSetID),
		Format:           str(KeyFormat),
		Priority:         num(KeyPriority),
		Persistence:      num(KeyPersistence),
		MsgID:            binary(md[KeyMsgID]),
		CorrelID:         binary(md[KeyCorrelID]),
		BackoutCount:     num(KeyBackoutCount),
		ReplyToQ:         str(KeyReplyToQ),
		ReplyToQMgr:      str(KeyReplyToQMgr),
		UserIdentifier:   str(KeyUserIdentifier),
		AccountingToken:  binary(md[KeyAccountingToken]),
		ApplIdentityData: str(KeyApplIdentityData),
		PutApplType:      num(KeyPutApplType),
		PutApplName:      str(KeyPutApplName),
		PutDate:          str(KeyPutDate),
		PutTime:          str(KeyPutTime),
		ApplOriginData:   str(KeyApplOriginData),
		GroupID:          binary(md[KeyGroupID]),
		MsgSeqNumber:     num(KeyMsgSeqNumber),
		Offset:           num(KeyOffset),
		MsgFlags:         num(KeyMsgFlags),
		OriginalLength:   num(KeyOriginalLength),
	}
}

// binary decodes a hex metadata value, falling back to the raw text.
func binary(v string) []byte {
	if v == "" {
		return nil
	}
	if b, err := hex.DecodeString(v); err == nil {
		return b
	}
	return []byte(v)
}

// Metadata renders d as mq_* metadata, the inverse of FromMetadata.
func (d *Descriptor) Metadata() metadata.Metadata {
	if d == nil {
		return metadata.Metadata{}
	}
	i := func(n int64) string { return strconv.FormatInt(n, 10) }
	return metadata.Metadata{
		KeyStrucID:          d.StrucID,
		KeyVersion:          i(d.Version),
		KeyReport:           i(d.Report),
		KeyMsgType:          i(d.MsgType),
		KeyExpiry:           i(d.Expiry),
		KeyFeedback:         i(d.Feedback),
		KeyEncoding:         i(d.Encoding),
		KeyCodedCharSetID:   i(d.CodedCharSetID),
		KeyFormat:           d.Format,
		KeyPriority:         i(d.Priority),
		KeyPersistence:      i(d.Persistence),
		KeyMsgID:            hex.EncodeToString(d.MsgID),
		KeyCorrelID:         hex.EncodeToString(d.CorrelID),
		KeyBackoutCount:     i(d.BackoutCount),
		KeyReplyToQ:         d.ReplyToQ,
		KeyReplyToQMgr:      d.ReplyToQMgr,
		KeyUserIdentifier:   d.UserIdentifier,
		KeyAccountingToken:  hex.EncodeToString(d.AccountingToken),
		KeyApplIdentityData: d.ApplIdentityData,
		KeyPutApplType:      i(d.PutApplType),
		KeyPutApplName:      d.PutApplName,
		KeyPutDate:          d.PutDate,
		KeyPutTime:          d.PutTime,
		KeyApplOriginData:   d.ApplOriginData,
		KeyGroupID:          hex.EncodeToString(d.GroupID),
		KeyMsgSeqNumber:     i(d.MsgSeqNumber),
		KeyOffset:           i(d.Offset),
		KeyMsgFlags:         i(d.MsgFlags),
		KeyOriginalLength:   i(d.OriginalLength),
	}
}

// MsgIDHex returns the message id as lower case hex.
func (d *Descriptor) MsgIDHex() string {
	if d == nil {
		return ""
	}
	return hex.EncodeToString(d.MsgID)
}

// PutTimestamp combines PutDate (YYYYMMDD) and PutTime (HHMMSSTH, GMT) into
// a UTC time with hundredth second precision.
func (d *Descriptor) PutTimestamp() (time.Time, bool) {
	if d == nil || len(d.PutDate) < 8 || len(d.PutTime) < 6 {
		return time.Time{}, false
	}
	ts, err := time.Parse("20060102150405", d.PutDate[:8]+d.PutTime[:6])
	if err != nil {
		return time.Time{}, false
	}
	if len(d.PutTime) >= 8 {
		if hs, err := strconv.Atoi(d.PutTime[6:8]); err == nil {
			ts = ts.Add(time.Duration(hs) * 10 * time.Millisecond)
		}
	}
	return ts, true
}

// FieldOptions control how Fields renders the descriptor.
type FieldOptions struct {
	// Pretty replaces known numeric codes by their constant names.
	Pretty bool
	// Printable writes binary identifiers sanitised instead of hex encoded.
	Printable bool
}

// Fields renders the descriptor as record fields in MQMD order.
func (d *Descriptor) Fields(opts FieldOptions) []format.Field {
	if d == nil {
		return nil
	}

	code := func(n int64, t describe.Table) any {
		if opts.Pretty {
			return t.Describe(n)
		}
		return n
	}
	str := func(s string, t describe.StringTable) string {
		if opts.Pretty {
			return t.Describe(s)
		}
		return s
	}
	bin := func(b []byte) string {
		if opts.Printable {
			return extract.Printable(b)
		}
		return hex.EncodeToString(b)
	}
	text := func(s string) string {
		if opts.Printable {
			return extract.PrintableString(s)
		}
		return hex.EncodeToString([]byte(s))
	}

	return []format.Field{
		{Name: "StrucId", Value: str(d.StrucID, describe.MQMDStrucID)},
		{Name: "Version", Value: code(d.Version, describe.MQMD)},
		{Name: "Report", Value: code(d.Report, describe.MQRO)},
		{Name: "MsgType", Value: code(d.MsgType, describe.MQMT)},
		{Name: "Expiry", Value: code(d.Expiry, describe.MQEI)},
		{Name: "Feedback", Value: code(d.Feedback, describe.MQFB)},
		{Name: "Encoding", Value: code(d.Encoding, describe.MQENC)},
		{Name: "CodedCharSetId", Value: code(d.CodedCharSetID, describe.MQCCSI)},
		{Name: "Format", Value: str(d.Format, describe.MQFMT)},
		{Name: "Priority", Value: code(d.Priority, describe.MQPRI)},
		{Name: "Persistence", Value: code(d.Persistence, describe.MQPER)},
		{Name: "PutApplType", Value: code(d.PutApplType, describe.MQAT)},
		{Name: "MsgFlags", Value: code(d.MsgFlags, describe.MQMF)},
		{Name: "OriginalLength", Value: code(d.OriginalLength, describe.MQOL)},
		{Name: "MsgId", Value: bin(d.MsgID)},
		{Name: "CorrelId", Value: bin(d.CorrelID)},
		{Name: "BackoutCount", Value: d.BackoutCount},
		{Name: "ReplyToQ", Value: d.ReplyToQ},
		{Name: "ReplyToQMgr", Value: d.ReplyToQMgr},
		{Name: "UserIdentifier", Value: text(d.UserIdentifier)},
		{Name: "AccountingToken", Value: bin(d.AccountingToken)},
		{Name: "ApplIdentityData", Value: text(d.ApplIdentityData)},
		{Name: "PutApplName", Value: text(d.PutApplName)},
		{Name: "PutDate", Value: d.PutDate},
		{Name: "PutTime", Value: d.PutTime},
		{Name: "ApplOriginData", Value: d.ApplOriginData},
		{Name: "GroupId", Value: bin(d.GroupID)},
		{Name: "MsgSeqNumber", Value: d.MsgSeqNumber},
		{Name: "Offset", Value: d.Offset},
	}
}
