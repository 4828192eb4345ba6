package entity

// Canonical column names, in persisted order.
const (
	ColExtractionDate = "extraction_date"
	ColReportDate     = "report_date"
	ColManagerName    = "manager_name"
	ColSourceDocument = "source_document"
	ColRegion         = "region"
	ColAssetClass     = "asset_class"
	ColAssetSubclass  = "asset_subclass"
	ColSentiment      = "sentiment"
	ColThesis         = "thesis"
)

// Columns is the fixed catalog column order.
var Columns = []string{
	ColExtractionDate,
	ColReportDate,
	ColManagerName,
	ColSourceDocument,
	ColRegion,
	ColAssetClass,
	ColAssetSubclass,
	ColSentiment,
	ColThesis,
}

// InvestmentView is one extracted record. ExtractionDate and SourceDocument are
// assigned by the pipeline; every other field comes from the model.
type InvestmentView struct {
	ExtractionDate string `json:"extraction_date"`
	ReportDate     string `json:"report_date"`
	ManagerName    string `json:"manager_name"`
	SourceDocument string `json:"source_document"`
	Region         string `json:"region"`
	AssetClass     string `json:"asset_class"`
	AssetSubclass  string `json:"asset_subclass"`
	Sentiment      string `json:"sentiment"`
	Thesis         string `json:"thesis"`
}

// Row returns the record's values in Columns order.
func (v InvestmentView) Row() []string {
	return []string{
		v.ExtractionDate,
		v.ReportDate,
		v.ManagerName,
		v.SourceDocument,
		v.Region,
		v.AssetClass,
		v.AssetSubclass,
		v.Sentiment,
		v.Thesis,
	}
}

// Get returns the value of a canonical column, or "" for unknown names.
func (v InvestmentView) Get(column string) string {
	switch column {
	case ColExtractionDate:
		return v.ExtractionDate
	case ColReportDate:
		return v.ReportDate
	case ColManagerName:
		return v.ManagerName
	case ColSourceDocument:
		return v.SourceDocument
	case ColRegion:
		return v.Region
	case ColAssetClass:
		return v.AssetClass
	case ColAssetSubclass:
		return v.AssetSubclass
	case ColSentiment:
		return v.Sentiment
	case ColThesis:
		return v.Thesis
	}
	return ""
}

// set assigns a canonical column; unknown names are ignored.
func (v *InvestmentView) set(column, value string) {
	switch column {
	case ColExtractionDate:
		v.ExtractionDate = value
	case ColReportDate:
		v.ReportDate = value
	case ColManagerName:
		v.ManagerName = value
	case ColSourceDocument:
		v.SourceDocument = value
	case ColRegion:
		v.Region = value
	case ColAssetClass:
		v.AssetClass = value
	case ColAssetSubclass:
		v.AssetSubclass = value
	case ColSentiment:
		v.Sentiment = value
	case ColThesis:
		v.Thesis = value
	}
}

// FromColumns builds a record from column/value pairs; unknown columns are ignored.
func FromColumns(values map[string]string) InvestmentView {
	var v InvestmentView
	for col, val := range values {
		v.set(col, val)
	}
	return v
}
