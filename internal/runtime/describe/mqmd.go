package describe

// Message descriptor constants.
var (
	MQMD = Table{
		1: "MQMD_VERSION_1",
		2: "MQMD_VERSION_2",
	}

	MQMDStrucID = StringTable{
		"MD": "MQMD_STRUC_ID",
	}

	MQRO = Table{
		0x00000000: "MQRO_NONE",
		0x00000001: "MQRO_PAN",
		0x00000002: "MQRO_NAN",
		0x00000004: "MQRO_ACTIVITY",
		0x00000040: "MQRO_PASS_CORREL_ID",
		0x00000080: "MQRO_PASS_MSG_ID",
		0x00000100: "MQRO_COA",
		0x00000300: "MQRO_COA_WITH_DATA",
		0x00000700: "MQRO_COA_WITH_FULL_DATA",
		0x00000800: "MQRO_COD",
		0x00001800: "MQRO_COD_WITH_DATA",
		0x00003800: "MQRO_COD_WITH_FULL_DATA",
		0x00004000: "MQRO_PASS_DISCARD_AND_EXPIRY",
		0x00200000: "MQRO_EXPIRATION",
		0x00600000: "MQRO_EXPIRATION_WITH_DATA",
		0x00E00000: "MQRO_EXPIRATION_WITH_FULL_DATA",
		0x01000000: "MQRO_EXCEPTION",
		0x03000000: "MQRO_EXCEPTION_WITH_DATA",
		0x07000000: "MQRO_EXCEPTION_WITH_FULL_DATA",
		0x08000000: "MQRO_DISCARD_MSG",
	}

	MQMT = Table{
		1:   "MQMT_REQUEST",
		2:   "MQMT_REPLY",
		4:   "MQMT_REPORT",
		8:   "MQMT_DATAGRAM",
		112: "MQMT_MQE_FIELDS_FROM_MQE",
		113: "MQMT_MQE_FIELDS",
	}

	MQEI = Table{
		-1: "MQEI_UNLIMITED",
	}

	MQFB = Table{
		0:     "MQFB_NONE",
		256:   "MQFB_QUIT",
		258:   "MQFB_EXPIRATION",
		259:   "MQFB_COA",
		260:   "MQFB_COD",
		262:   "MQFB_CHANNEL_COMPLETED",
		263:   "MQFB_CHANNEL_FAIL_RETRY",
		264:   "MQFB_CHANNEL_FAIL",
		265:   "MQFB_APPL_CANNOT_BE_STARTED",
		266:   "MQFB_TM_ERROR",
		267:   "MQFB_APPL_TYPE_ERROR",
		268:   "MQFB_STOPPED_BY_MSG_EXIT",
		269:   "MQFB_ACTIVITY",
		271:   "MQFB_XMIT_Q_MSG_ERROR",
		275:   "MQFB_PAN",
		276:   "MQFB_NAN",
		277:   "MQFB_STOPPED_BY_CHAD_EXIT",
		279:   "MQFB_STOPPED_BY_PUBSUB_EXIT",
		280:   "MQFB_NOT_A_REPOSITORY_MSG",
		281:   "MQFB_BIND_OPEN_CLUSRCVR_DEL",
		282:   "MQFB_MAX_ACTIVITIES",
		283:   "MQFB_NOT_FORWARDED",
		284:   "MQFB_NOT_DELIVERED",
		285:   "MQFB_UNSUPPORTED_FORWARDING",
		286:   "MQFB_UNSUPPORTED_DELIVERY",
		291:   "MQFB_DATA_LENGTH_ZERO",
		292:   "MQFB_DATA_LENGTH_NEGATIVE",
		293:   "MQFB_DATA_LENGTH_TOO_BIG",
		294:   "MQFB_BUFFER_OVERFLOW",
		295:   "MQFB_LENGTH_OFF_BY_ONE",
		296:   "MQFB_IIH_ERROR",
		298:   "MQFB_NOT_AUTHORIZED_FOR_IMS",
		300:   "MQFB_IMS_ERROR",
		401:   "MQFB_CICS_INTERNAL_ERROR",
		402:   "MQFB_CICS_NOT_AUTHORIZED",
		65535: "MQFB_SYSTEM_LAST",
		65536: "MQFB_APPL_FIRST",
	}

	MQENC = Table{
		-1:  "MQENC_AS_PUBLISHED",
		273: "MQENC_NORMAL",
		546: "MQENC_NATIVE",
		785: "MQENC_S390",
	}

	MQCCSI = Table{
		0:  "MQCCSI_Q_MGR",
		-1: "MQCCSI_EMBEDDED",
		-2: "MQCCSI_INHERIT",
		-3: "MQCCSI_APPL",
		-4: "MQCCSI_AS_PUBLISHED",
	}

	MQFMT = StringTable{
		"":        "MQFMT_NONE",
		"MQADMIN": "MQFMT_ADMIN",
		"MQCHCOM": "MQFMT_CHANNEL_COMPLETED",
		"MQCICS":  "MQFMT_CICS",
		"MQCMD1":  "MQFMT_COMMAND_1",
		"MQCMD2":  "MQFMT_COMMAND_2",
		"MQDEAD":  "MQFMT_DEAD_LETTER_HEADER",
		"MQHDIST": "MQFMT_DIST_HEADER",
		"MQHEPCF": "MQFMT_EMBEDDED_PCF",
		"MQEVENT": "MQFMT_EVENT",
		"MQIMS":   "MQFMT_IMS",
		"MQIMSVS": "MQFMT_IMS_VAR_STRING",
		"MQHMDE":  "MQFMT_MD_EXTENSION",
		"MQPCF":   "MQFMT_PCF",
		"MQHREF":  "MQFMT_REF_MSG_HEADER",
		"MQHRF":   "MQFMT_RF_HEADER",
		"MQHRF2":  "MQFMT_RF_HEADER_2",
		"MQSTR":   "MQFMT_STRING",
		"MQTRIG":  "MQFMT_TRIGGER",
		"MQHWIH":  "MQFMT_WORK_INFO_HEADER",
		"MQXMIT":  "MQFMT_XMIT_Q_HEADER",
	}

	MQPRI = Table{
		-1: "MQPRI_PRIORITY_AS_Q_DEF",
		-2: "MQPRI_PRIORITY_AS_PARENT",
		-3: "MQPRI_PRIORITY_AS_PUBLISHED",
	}

	MQPER = Table{
		-1: "MQPER_PERSISTENCE_AS_PARENT",
		0:  "MQPER_NOT_PERSISTENT",
		1:  "MQPER_PERSISTENT",
		2:  "MQPER_PERSISTENCE_AS_Q_DEF",
	}

	MQAT = Table{
		-1: "MQAT_UNKNOWN",
		0:  "MQAT_NO_CONTEXT",
		1:  "MQAT_CICS",
		2:  "MQAT_ZOS",
		3:  "MQAT_IMS",
		4:  "MQAT_OS2",
		5:  "MQAT_DOS",
		6:  "MQAT_UNIX",
		7:  "MQAT_QMGR",
		8:  "MQAT_OS400",
		9:  "MQAT_WINDOWS",
		10: "MQAT_CICS_VSE",
		11: "MQAT_WINDOWS_NT",
		12: "MQAT_VMS",
		13: "MQAT_NSK",
		14: "MQAT_VOS",
		15: "MQAT_OPEN_TP1",
		18: "MQAT_VM",
		19: "MQAT_IMS_BRIDGE",
		20: "MQAT_XCF",
		21: "MQAT_CICS_BRIDGE",
		22: "MQAT_NOTES_AGENT",
		23: "MQAT_TPF",
		25: "MQAT_USER",
		26: "MQAT_BROKER",
		28: "MQAT_JAVA",
		29: "MQAT_DQM",
		30: "MQAT_CHANNEL_INITIATOR",
		31: "MQAT_WLM",
		32: "MQAT_BATCH",
		33: "MQAT_RRS_BATCH",
		34: "MQAT_SIB",
		35: "MQAT_SYSTEM_EXTENSION",
		36: "MQAT_MCAST_PUBLISH",
		37: "MQAT_AMQP",
	}

	MQMF = Table{
		0x00: "MQMF_NONE",
		0x01: "MQMF_SEGMENTATION_ALLOWED",
		0x02: "MQMF_SEGMENT",
		0x04: "MQMF_LAST_SEGMENT",
		0x08: "MQMF_MSG_IN_GROUP",
		0x10: "MQMF_LAST_MSG_IN_GROUP",
	}

	MQOL = Table{
		-1: "MQOL_UNDEFINED",
	}
)
