package describe

import "strconv"

// Channel status value constants.
var (
	MQCHS = Table{
		0:  "MQCHS_INACTIVE",
		1:  "MQCHS_BINDING",
		2:  "MQCHS_STARTING",
		3:  "MQCHS_RUNNING",
		4:  "MQCHS_STOPPING",
		5:  "MQCHS_RETRYING",
		6:  "MQCHS_STOPPED",
		7:  "MQCHS_REQUESTING",
		8:  "MQCHS_PAUSED",
		9:  "MQCHS_DISCONNECTED",
		13: "MQCHS_INITIALIZING",
		14: "MQCHS_SWITCHING",
	}

	MQCHSSTATE = Table{
		0:    "MQCHSSTATE_OTHER",
		100:  "MQCHSSTATE_END_OF_BATCH",
		200:  "MQCHSSTATE_SENDING",
		300:  "MQCHSSTATE_RECEIVING",
		400:  "MQCHSSTATE_SERIALIZING",
		500:  "MQCHSSTATE_RESYNCHING",
		600:  "MQCHSSTATE_HEARTBEATING",
		700:  "MQCHSSTATE_IN_SCYEXIT",
		800:  "MQCHSSTATE_IN_RCVEXIT",
		900:  "MQCHSSTATE_IN_SENDEXIT",
		1000: "MQCHSSTATE_IN_MSGEXIT",
		1100: "MQCHSSTATE_IN_MREXIT",
		1200: "MQCHSSTATE_IN_CHADEXIT",
		1250: "MQCHSSTATE_NET_CONNECTING",
		1300: "MQCHSSTATE_SSL_HANDSHAKING",
		1400: "MQCHSSTATE_NAME_SERVER",
		1500: "MQCHSSTATE_IN_MQPUT",
		1600: "MQCHSSTATE_IN_MQGET",
		1700: "MQCHSSTATE_IN_MQI_CALL",
		1800: "MQCHSSTATE_COMPRESSING",
	}

	MQCOMPRESS = Table{
		-1:         "MQCOMPRESS_NOT_AVAILABLE",
		0:          "MQCOMPRESS_NONE",
		1:          "MQCOMPRESS_RLE",
		2:          "MQCOMPRESS_ZLIBFAST",
		4:          "MQCOMPRESS_ZLIBHIGH",
		8:          "MQCOMPRESS_SYSTEM",
		0x0FFFFFFF: "MQCOMPRESS_ANY",
	}

	MQMON = Table{
		-3: "MQMON_Q_MGR",
		-1: "MQMON_NOT_AVAILABLE",
		0:  "MQMON_OFF",
		1:  "MQMON_ON",
		17: "MQMON_LOW",
		33: "MQMON_MEDIUM",
		65: "MQMON_HIGH",
	}

	MQCHT = Table{
		1:  "MQCHT_SENDER",
		2:  "MQCHT_SERVER",
		3:  "MQCHT_RECEIVER",
		4:  "MQCHT_REQUESTER",
		5:  "MQCHT_ALL",
		6:  "MQCHT_CLNTCONN",
		7:  "MQCHT_SVRCONN",
		8:  "MQCHT_CLUSRCVR",
		9:  "MQCHT_CLUSSDR",
		10: "MQCHT_MQTT",
		11: "MQCHT_AMQP",
	}

	MQOT = Table{
		1011: "MQOT_CURRENT_CHANNEL",
		1012: "MQOT_SAVED_CHANNEL",
		1013: "MQOT_SVRCONN_CHANNEL",
		1014: "MQOT_CLNTCONN_CHANNEL",
		1015: "MQOT_SHORT_CHANNEL",
	}

	MQCHSR = Table{
		0: "MQCHSR_STOP_NOT_REQUESTED",
		1: "MQCHSR_STOP_REQUESTED",
	}

	MQMCAS = Table{
		0: "MQMCAS_STOPPED",
		3: "MQMCAS_RUNNING",
	}
)

// PCF parameter codes of a channel status response.
const (
	ParamMonitoringChannel    int32 = 122
	ParamRemoteQMgrName       int32 = 2017
	ParamChannelType          int32 = 1511
	ParamMsgSequenceNumber    int32 = 1514
	ParamInDoubt              int32 = 1516
	ParamChannelInstanceType  int32 = 1523
	ParamChannelStatus        int32 = 1527
	ParamLastSequenceNumber   int32 = 1529
	ParamCurrentMsgs          int32 = 1531
	ParamCurrentSeqNumber     int32 = 1532
	ParamSSLReturnCode        int32 = 1533
	ParamMsgs                 int32 = 1534
	ParamBytesSent            int32 = 1535
	ParamBytesReceived        int32 = 1536
	ParamBatches              int32 = 1537
	ParamBuffersSent          int32 = 1538
	ParamBuffersReceived      int32 = 1539
	ParamLongRetriesLeft      int32 = 1540
	ParamShortRetriesLeft     int32 = 1541
	ParamMCAStatus            int32 = 1542
	ParamStopRequested        int32 = 1543
	ParamHeartbeatInterval    int32 = 1563
	ParamBatchSize            int32 = 1502
	ParamHdrCompression       int32 = 1575
	ParamMsgCompression       int32 = 1576
	ParamXmitQTimeIndicator   int32 = 1604
	ParamExitTimeIndicator    int32 = 1605
	ParamNetworkTimeIndicator int32 = 1606
	ParamBatchSizeIndicator   int32 = 1607
	ParamXmitQMsgsAvailable   int32 = 1608
	ParamChannelSubstate      int32 = 1609
	ParamSSLKeyResets         int32 = 1610
	ParamCompressionRate      int32 = 1611
	ParamCompressionTime      int32 = 1612
	ParamMaxXmitSize          int32 = 1613
	ParamCurrentSharingConvs  int32 = 1617

	ParamChannelName      int32 = 3501
	ParamXmitQName        int32 = 3505
	ParamConnectionName   int32 = 3506
	ParamLastMsgTime      int32 = 3524
	ParamLastMsgDate      int32 = 3525
	ParamMCAUserID        int32 = 3527
	ParamChannelStartTime int32 = 3528
	ParamChannelStartDate int32 = 3529
	ParamMCAJobName       int32 = 3530
	ParamLastLUWID        int32 = 3531
	ParamCurrentLUWID     int32 = 3532
	ParamSSLCipherSpec    int32 = 3544
	ParamSSLPeerName      int32 = 3545
	ParamRemoteApplTag    int32 = 3548
	ParamLocalAddress     int32 = 3520
	ParamRemoteVersion    int32 = 3560
	ParamRemoteProduct    int32 = 3561
)

// Param describes how one status parameter is rendered.
type Param struct {
	// Name is the field name.
	Name string
	// Values, when set, describes the parameter's numeric values.
	Values Table
	// Pair names the suffixes of a two element tuple value.
	Pair [2]string
}

var (
	shortLong = [2]string{"short", "long"}
	// compression lists carry the negotiated value and the last one used.
	defaultLast = [2]string{"default", "last"}
)

// StatusParams lists the channel status parameters with known names.
var StatusParams = map[int32]Param{
	ParamMonitoringChannel:    {Name: "monitoring", Values: MQMON},
	ParamRemoteQMgrName:       {Name: "remote_queue_manager"},
	ParamBatchSize:            {Name: "batch_size"},
	ParamChannelType:          {Name: "channel_type", Values: MQCHT},
	ParamMsgSequenceNumber:    {Name: "msg_sequence_number"},
	ParamInDoubt:              {Name: "in_doubt"},
	ParamChannelInstanceType:  {Name: "channel_instance_type", Values: MQOT},
	ParamChannelStatus:        {Name: "channel_status", Values: MQCHS},
	ParamLastSequenceNumber:   {Name: "last_sequence_number"},
	ParamCurrentMsgs:          {Name: "current_msgs"},
	ParamCurrentSeqNumber:     {Name: "current_sequence_number"},
	ParamSSLReturnCode:        {Name: "ssl_return_code"},
	ParamMsgs:                 {Name: "msgs"},
	ParamBytesSent:            {Name: "bytes_sent"},
	ParamBytesReceived:        {Name: "bytes_received"},
	ParamBatches:              {Name: "batches"},
	ParamBuffersSent:          {Name: "buffers_sent"},
	ParamBuffersReceived:      {Name: "buffers_received"},
	ParamLongRetriesLeft:      {Name: "long_retries_left"},
	ParamShortRetriesLeft:     {Name: "short_retries_left"},
	ParamMCAStatus:            {Name: "mca_status", Values: MQMCAS},
	ParamStopRequested:        {Name: "stop_requested", Values: MQCHSR},
	ParamHeartbeatInterval:    {Name: "heartbeat_interval"},
	ParamHdrCompression:       {Name: "header_compression", Values: MQCOMPRESS, Pair: defaultLast},
	ParamMsgCompression:       {Name: "msg_compression", Values: MQCOMPRESS, Pair: defaultLast},
	ParamXmitQTimeIndicator:   {Name: "xmitq_time_indicator", Pair: shortLong},
	ParamExitTimeIndicator:    {Name: "exit_time_indicator", Pair: shortLong},
	ParamNetworkTimeIndicator: {Name: "network_time_indicator", Pair: shortLong},
	ParamBatchSizeIndicator:   {Name: "batch_size_indicator", Pair: shortLong},
	ParamXmitQMsgsAvailable:   {Name: "xmitq_msgs_available"},
	ParamChannelSubstate:      {Name: "channel_substate", Values: MQCHSSTATE},
	ParamSSLKeyResets:         {Name: "ssl_key_resets"},
	ParamCompressionRate:      {Name: "compression_rate", Pair: shortLong},
	ParamCompressionTime:      {Name: "compression_time", Pair: shortLong},
	ParamMaxXmitSize:          {Name: "max_xmit_size"},
	ParamCurrentSharingConvs:  {Name: "current_sharing_conversations"},
	ParamChannelName:          {Name: "channel_name"},
	ParamXmitQName:            {Name: "xmit_queue"},
	ParamConnectionName:       {Name: "connection_name"},
	ParamLocalAddress:         {Name: "local_address"},
	ParamLastMsgTime:          {Name: "last_msg_time"},
	ParamLastMsgDate:          {Name: "last_msg_date"},
	ParamMCAUserID:            {Name: "mca_user_id"},
	ParamChannelStartTime:     {Name: "channel_start_time"},
	ParamChannelStartDate:     {Name: "channel_start_date"},
	ParamMCAJobName:           {Name: "mca_job_name"},
	ParamLastLUWID:            {Name: "last_luwid"},
	ParamCurrentLUWID:         {Name: "current_luwid"},
	ParamSSLCipherSpec:        {Name: "ssl_cipher_spec"},
	ParamSSLPeerName:          {Name: "ssl_peer_name"},
	ParamRemoteApplTag:        {Name: "remote_appl_tag"},
	ParamRemoteVersion:        {Name: "remote_version"},
	ParamRemoteProduct:        {Name: "remote_product"},
}

// StatusParam returns the rendering of a status parameter. Unknown codes are
// named param_<code>.
func StatusParam(code int32) Param {
	if p, ok := StatusParams[code]; ok {
		return p
	}
	return Param{Name: "param_" + strconv.FormatInt(int64(code), 10)}
}
