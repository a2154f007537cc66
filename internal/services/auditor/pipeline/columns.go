package pipeline

// Source columns of the collateral ledger (CRM4).
const (
	colCollBranch    = "BRANCH_VAY"
	colCollCustomer  = "CIF_KH_VAY"
	colCollName      = "TEN_KH_VAY"
	colCollSegment   = "CUSTTPCD"
	colCollDebtGroup = "NHOM_NO"
	colCollFacility  = "LOAI"
	colCollCode      = "CAP_2"
	colCollValue     = "TS_KW_VND"
	colCollExposure  = "DU_NO_PHAN_BO_QUY_DOI"
	colCollValuation = "VALUATION_DATE"
	colCollSerial    = "SECU_SRL_NUM"
	colCollType      = "LOAI_TS"
	colCollNote      = "GHI_CHU_TSBD"
	colCollDaysStale = "SO_NGAY_QUA_HAN"
)

// Source columns of the loan-terms ledger (CRM32).
const (
	colTermsBranch   = "BRCD"
	colTermsCustomer = "CUSTSEQLN"
	colTermsApproval = "CAP_PHE_DUYET"
	colTermsScheme   = "SCHEME_CODE"
	colTermsPurpose  = "MUC_DICH_VAY_CAP_4"
	colTermsExposure = "DU_NO_QUY_DOI"
	colTermsContract = "KHE_UOC"
	colTermsApprCode = "MA_PHE_DUYET"
	colTermsGroup    = "MUC DICH"
	colTermsNote     = "GHI_CHU_MUC_DICH"
)

// Lookup and auxiliary tables.
const (
	colMapCollCode   = "CODE CAP 2"
	colMapCollType   = "CODE"
	colMapPurposeKey = "CODE_MDSDV4"
	colMapPurposeGrp = "GROUP"

	colRegSerial  = "C01"
	colRegType    = "C02"
	colRegAddress = "C19"

	colCashRef = "FORACID"

	colSettleCustomer = "CUSTSEQLN"
	colSettleName     = "NMLOC"
	colSettleContract = "KHE_UOC"
	colSettleAmount   = "SOTIENGIAINGAN"
	colSettleDisbDate = "NGAYGN"
	colSettleMaturity = "NGAYDH"
	colSettleDate     = "NGAY_TT"
	colSettleCurrency = "LOAITIEN"

	colDisbCustomer = "CIF"
	colDisbName     = "TEN_KHACH_HANG"
	colDisbContract = "KHE_UOC"
	colDisbAmount   = "SO_TIEN_GIAI_NGAN_VND"
	colDisbDate     = "NGAY_GIAI_NGAN"
	colDisbMaturity = "NGAY_DAO_HAN"
	colDisbCurrency = "LOAI_TIEN_HD"

	colDelayCustomer    = "CIF_ID"
	colDelayCustomerAlt = "CUSTSEQLN"
	colDelayDue         = "NGAY_DEN_HAN_TT"
	colDelayPaid        = "NGAY_THANH_TOAN"
)

// Output labels of the customer master table.
const (
	outSeq           = "STT"
	outTotalExposure = "DƯ NỢ"
	outTotalValue    = "GIÁ TRỊ TS"
	outValueSuffix   = " (Giá trị TS)"
	outPurposeTotal  = "DƯ NỢ CRM32"
	outPurposeSuffix = " (CRM32)"
	outMismatch      = "LECH"
	outDebtGroup2    = "Nợ nhóm 2"
	outBadDebt       = "Nợ xấu"
	outApprovalC     = "Chuyên gia PD cấp C duyệt"
	outRestructured  = "NỢ CƠ_CẤU"
	outGuarantee     = "DƯ_NỢ_BẢO_LÃNH"
	outLC            = "DƯ_NỢ_LC"
	outCash          = "GIẢI_NGÂN_TIEN_MAT"
	outCrossPledge   = "Cầm cố tại TCTD khác"
	outTopIndividual = "Top 10 dư nợ KHCN"
	outTopCorporate  = "Top 10 dư nợ KHDN"
	outStale         = "KH có TSBĐ quá hạn định giá"
	outOffRegion     = "KH có TSBĐ khác địa bàn"
	outSameDay       = "KH có cả GNG và TT trong 1 ngày"
	outLateOver10    = "KH Phát sinh chậm trả > 10 ngày"
	outLate4to9      = "KH Phát sinh chậm trả 4-9 ngày"
	outProvince      = "TINH_TP_TSBD"
	outOffRegionRow  = "CANH_BAO_TS_KHAC_DIABAN"
	outEventKind     = "GIAI_NGAN_TT"
	outEventDate     = "NGAY"
	outBothSameDay   = "CO_CA_GN_VA_TT"
	outDaysLate      = "SO_NGAY_CHAM_TRA"
	outTier          = "CAP_CHAM_TRA"
	outEffectivePaid = "NGAY_THANH_TOAN_FILL"
	outKept          = "GIU_LAI"
)

// Headers of the two code-mapping tables, for callers that build them from
// sources other than spreadsheets.
var (
	CollateralTypesHeader = []string{colMapCollCode, colMapCollType}
	PurposeGroupsHeader   = []string{colMapPurposeKey, colMapPurposeGrp}
)
