package extract

import "regexp"

// fieldRules is the declarative vocabulary for one extraction field.
// Keeping these as data means new label variants can be added without
// touching the scoring logic.
type fieldRules struct {
	// Labels match the labeled form "<label>[:：-] <value>" and the
	// label-then-next-line form.
	Labels []string

	// Keywords earn a scoring bonus when they appear in a candidate line.
	Keywords []string

	// Suffixes earn a bonus when a candidate line ends with one of them.
	Suffixes []string

	// Exclusions disqualify a line outright (adjacent-but-different
	// concepts, e.g. a record date next to the resolution date).
	Exclusions []string

	// RejectVerbs mark narrative sentences that must never win over the
	// thing they merely mention.
	RejectVerbs []string
}

var titleRules = fieldRules{
	Keywords: []string{
		"dividend", "distribution", "resolution", "board", "minutes", "surplus",
		"配当", "決議", "議事録", "取締役会", "株主総会", "剰余金",
	},
	Suffixes: []string{
		"resolution", "minutes", "決議書", "議事録", "決議",
	},
	RejectVerbs: []string{
		"resolved", "hereby", "approve", "approved", "shall",
		"する", "します", "された", "be paid",
	},
}

// titleExactPatterns are fixed document-title phrases that win immediately.
var titleExactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^dividend\s+resolution$`),
	regexp.MustCompile(`(?i)^board\s+resolution(\s+on\s+.{1,40})?$`),
	regexp.MustCompile(`(?i)^(minutes\s+of\s+the\s+)?board\s+of\s+directors.{0,30}(resolution|minutes)$`),
	regexp.MustCompile(`^配当決議書?$`),
	regexp.MustCompile(`^剰余金の配当に関する(取締役会)?決議書?$`),
	regexp.MustCompile(`^取締役会議事録$`),
	regexp.MustCompile(`^臨時株主総会議事録$`),
}

var companyRules = fieldRules{
	Labels: []string{
		"company name", "company", "issuer", "会社名", "社名", "発行会社", "商号",
	},
	RejectVerbs: []string{
		"resolved", "approved", "approve", "distribute", "declared", "declare",
		"decided", "決議", "配当する", "承認", "支払う", "分配",
	},
}

// companySuffixPatterns recognize a corporate name by its legal-form suffix.
// The English pattern demands at least two capitalized tokens so ordinary
// capitalized phrases ("The Board Inc case") do not slip through.
var (
	companySuffixJP = regexp.MustCompile(
		`(?:株式会社|有限会社|合同会社|合名会社|合資会社)[^\s、。，,]{1,40}|[^\s、。，,]{1,40}(?:株式会社|有限会社|合同会社|合名会社|合資会社)`)
	companySuffixEN = regexp.MustCompile(
		`(?:[A-Z][A-Za-z&'.\-]*\s+)+(?:Inc\.?|Incorporated|Corp\.?|Corporation|Co\.,?\s*Ltd\.?|Ltd\.?|Limited|LLC|L\.L\.C\.|K\.K\.?|G\.K\.?|Holdings(?:\s+K\.K\.)?|Company)`)
	capitalTokenPattern = regexp.MustCompile(`\b[A-Z][A-Za-z&'.\-]*`)
)

// addressLabelPattern anchors the address-block heuristic: the company name
// usually sits just above its own address.
var addressLabelPattern = regexp.MustCompile(`(?i)^(address|registered office|所在地|住所|本店所在地)\s*[:：]?`)

var dateRules = fieldRules{
	Labels: []string{
		"resolution date", "date of resolution", "date of board resolution",
		"board resolution date", "resolved on", "date",
		"決議日", "取締役会決議日", "決議年月日", "日付",
	},
	Keywords: []string{
		"resolution", "resolved", "board", "meeting", "directors", "shareholders",
		"決議", "取締役会", "株主総会", "開催",
	},
	Exclusions: []string{
		"record date", "effective date", "payment date", "payable",
		"基準日", "効力発生日", "支払開始日", "支払日",
	},
}

var amountRules = fieldRules{
	Labels: []string{
		"total amount of dividends", "total amount of dividend", "total dividends",
		"total dividend amount", "aggregate amount of dividends", "amount",
		"配当金総額", "配当総額", "配当金の総額", "金額",
	},
	Keywords: []string{
		"dividend", "配当",
	},
	Exclusions: []string{
		"per share", "per-share", "1株当たり", "一株当たり", "１株当たり", "1株につき",
	},
}

// datePatterns cover the three supported notations. Reiwa era years convert
// via year = 2018 + N.
var (
	dateISOPattern    = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	dateKanjiPattern  = regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`)
	dateReiwaPattern  = regexp.MustCompile(`令和\s*(元|\d{1,2})年\s*(\d{1,2})月\s*(\d{1,2})日`)
	reiwaEraBaseYear  = 2018
)

// amount parsing helpers
var (
	currencyMarkerPattern = regexp.MustCompile(`(?i)JPY|yen|[¥￥円]`)
	numberPattern         = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	okuAmountPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*億`)
)

// labeledValuePattern builds the regexp for the labeled form of a keyword.
func labeledValuePattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*[:：\-]\s*(.+)$`)
}
