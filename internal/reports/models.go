package reports

import (
	"time"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/markup"
)

// optInt returns the column as an integer pointer, nil when null.
func optInt(r core.Record, col string) *int64 {
	if n, ok := r.NullInt(col); ok {
		return &n
	}
	return nil
}

// optFloat returns the column as a float pointer, nil when null.
func optFloat(r core.Record, col string) *float64 {
	if d, ok := core.Decimal(r[col]); ok {
		f := d.InexactFloat64()
		return &f
	}
	return nil
}

// n0 formats a numeric column with thousands separators; null is "".
func n0(r core.Record, col string) string {
	d, ok := core.Decimal(r[col])
	if !ok {
		return ""
	}
	return core.FormatThousands(d)
}

func formatTime(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

const (
	dateTimeLayout  = "02/01/2006 15:04"
	shortDateLayout = "02/01/06"
)

// manifestFields exposes the manifest header to templates.
type manifestFields struct{ m *core.Manifest }

func (f manifestFields) Fields() []markup.Field {
	m := f.m
	if m == nil {
		m = &core.Manifest{}
	}
	return []markup.Field{
		markup.Scalar("ManifestID", m.ManifestID),
		markup.Scalar("GroupName", m.GroupName),
		markup.Scalar("GroupID", m.GroupID),
		markup.Scalar("TermName", m.TermName),
		markup.Scalar("TermUN", m.TermUN),
		markup.Scalar("TermVAT", m.TermVAT),
		markup.Scalar("Location", m.Location),
		markup.Scalar("Phone", m.Phone),
		markup.Scalar("LastGush", m.LastGush),
	}
}

// Consignment is a bonded consignment record.
type Consignment struct {
	ConsignmentID          string
	ManifestID             string
	ConsignmentStatus      string
	ReceiveDate            *time.Time
	LastUpdatedDate        *time.Time
	DeliverySiteNumber     string
	StoringSiteNumber      string
	ShipVisitID            string
	ExpectedArrival        *time.Time
	ImporterID             string
	DeclarationID          *int64
	ConsignmentDescription string
	ReleaseDate            *time.Time
	CustomsAgent           string
	CustomsAgentID         string
	BilledCA               string
	BilledCAID             string
	BilledImporter         string
	BilledImporterID       string
	BOL                    string
	CustomsAgentFile       string
	ImporterName           string
	DealValueNIS           *float64
	FobValueNis            *float64
	CurrencyType           string
	ShipName               string
	Port                   string
	F20units               *int64
	F40units               *int64
	TEU                    *int64
	Volume                 *int64
	StorageArea            *float64
	NumOfPallets           *int64
	Gush                   *int64
	InternalRemarks        string
	CustomerRemarks        string
	TransportCompanyName   string
	Mortgaged              *int64
	Mortgagee              string
	OpeningDate            *time.Time

	FormattedDealValueNIS    string
	FormattedFobValueNis     string
	FormattedGush            string
	FormattedLastUpdatedDate string
}

func consignmentFromRecord(r core.Record) *Consignment {
	c := &Consignment{
		ConsignmentID:          r.String("ConsignmentID"),
		ManifestID:             r.String("ManifestID"),
		ConsignmentStatus:      r.String("ConsignmentStatus"),
		ReceiveDate:            r.Time("ReceiveDate"),
		LastUpdatedDate:        r.Time("LastUpdatedDate"),
		DeliverySiteNumber:     r.String("DeliverySiteNumber"),
		StoringSiteNumber:      r.String("StoringSiteNumber"),
		ShipVisitID:            r.String("ShipVisitID"),
		ExpectedArrival:        r.Time("ExpectedArrival"),
		ImporterID:             r.String("ImporterID"),
		DeclarationID:          optInt(r, "DeclarationID"),
		ConsignmentDescription: r.String("ConsignmentDescription"),
		ReleaseDate:            r.Time("ReleaseDate"),
		CustomsAgent:           r.String("CustomsAgent"),
		CustomsAgentID:         r.String("CustomsAgentID"),
		BilledCA:               r.String("BilledCA"),
		BilledCAID:             r.String("BilledCAID"),
		BilledImporter:         r.String("BilledImporter"),
		BilledImporterID:       r.String("BilledImporterID"),
		BOL:                    r.String("BOL"),
		CustomsAgentFile:       r.String("CustomsAgentFile"),
		ImporterName:           r.String("ImporterName"),
		DealValueNIS:           optFloat(r, "DealValueNIS"),
		FobValueNis:            optFloat(r, "FobValueNis"),
		CurrencyType:           r.String("CurrencyType"),
		ShipName:               r.String("ShipName"),
		Port:                   r.String("Port"),
		F20units:               optInt(r, "F20units"),
		F40units:               optInt(r, "F40units"),
		TEU:                    optInt(r, "TEU"),
		Volume:                 optInt(r, "Volume"),
		StorageArea:            optFloat(r, "StorageArea"),
		NumOfPallets:           optInt(r, "NumOfPallets"),
		Gush:                   optInt(r, "Gush"),
		InternalRemarks:        r.String("InternalRemarks"),
		CustomerRemarks:        r.String("CustomerRemarks"),
		TransportCompanyName:   r.String("TransportCompanyName"),
		Mortgaged:              optInt(r, "Mortgaged"),
		Mortgagee:              r.String("Mortgagee"),
		OpeningDate:            r.Time("OpeningDate"),
	}
	c.FormattedDealValueNIS = n0(r, "DealValueNIS")
	c.FormattedFobValueNis = n0(r, "FobValueNis")
	c.FormattedGush = core.FormatGush(r.String("Gush"))
	c.FormattedLastUpdatedDate = formatTime(c.LastUpdatedDate, dateTimeLayout)
	return c
}

func (c *Consignment) Fields() []markup.Field {
	return []markup.Field{
		markup.Scalar("ConsignmentID", c.ConsignmentID),
		markup.Scalar("ManifestID", c.ManifestID),
		markup.Scalar("ConsignmentStatus", c.ConsignmentStatus),
		markup.Scalar("ReceiveDate", c.ReceiveDate),
		markup.Scalar("LastUpdatedDate", c.LastUpdatedDate),
		markup.Scalar("DeliverySiteNumber", c.DeliverySiteNumber),
		markup.Scalar("StoringSiteNumber", c.StoringSiteNumber),
		markup.Scalar("ShipVisitID", c.ShipVisitID),
		markup.Scalar("ExpectedArrival", c.ExpectedArrival),
		markup.Scalar("ImporterID", c.ImporterID),
		markup.Scalar("DeclarationID", c.DeclarationID),
		markup.Scalar("ConsignmentDescription", c.ConsignmentDescription),
		markup.Scalar("ReleaseDate", c.ReleaseDate),
		markup.Scalar("CustomsAgent", c.CustomsAgent),
		markup.Scalar("CustomsAgentID", c.CustomsAgentID),
		markup.Scalar("BilledCA", c.BilledCA),
		markup.Scalar("BilledCAID", c.BilledCAID),
		markup.Scalar("BilledImporter", c.BilledImporter),
		markup.Scalar("BilledImporterID", c.BilledImporterID),
		markup.Scalar("BOL", c.BOL),
		markup.Scalar("CustomsAgentFile", c.CustomsAgentFile),
		markup.Scalar("ImporterName", c.ImporterName),
		markup.Scalar("DealValueNIS", c.DealValueNIS),
		markup.Scalar("FobValueNis", c.FobValueNis),
		markup.Scalar("CurrencyType", c.CurrencyType),
		markup.Scalar("ShipName", c.ShipName),
		markup.Scalar("Port", c.Port),
		markup.Scalar("F20units", c.F20units),
		markup.Scalar("F40units", c.F40units),
		markup.Scalar("TEU", c.TEU),
		markup.Scalar("Volume", c.Volume),
		markup.Scalar("StorageArea", c.StorageArea),
		markup.Scalar("NumOfPallets", c.NumOfPallets),
		markup.Scalar("Gush", c.Gush),
		markup.Scalar("InternalRemarks", c.InternalRemarks),
		markup.Scalar("CustomerRemarks", c.CustomerRemarks),
		markup.Scalar("TransportCompanyName", c.TransportCompanyName),
		markup.Scalar("Mortgaged", c.Mortgaged),
		markup.Scalar("Mortgagee", c.Mortgagee),
		markup.Scalar("OpeningDate", c.OpeningDate),
		markup.Scalar("FormattedDealValueNIS", c.FormattedDealValueNIS),
		markup.Scalar("FormattedFobValueNis", c.FormattedFobValueNis),
		markup.Scalar("FormattedGush", c.FormattedGush),
		markup.Scalar("FormattedLastUpdatedDate", c.FormattedLastUpdatedDate),
	}
}

// Item is one goods line of a consignment.
type Item struct {
	ItemSequence     *int64
	CargoDescription string
	ItemWeight       *float64
	Quantity         *int64
	OriginalQuantity *int64
	PackageType      string
	HScode           string
	MarksAndNumbers  string

	FormattedItemWeight       string
	FormattedQuantity         string
	FormattedOriginalQuantity string
}

func itemFromRecord(r core.Record) *Item {
	return &Item{
		ItemSequence:              optInt(r, "ItemSequence"),
		CargoDescription:          r.String("CargoDescription"),
		ItemWeight:                optFloat(r, "ItemWeight"),
		Quantity:                  optInt(r, "Quantity"),
		OriginalQuantity:          optInt(r, "OriginalQuantity"),
		PackageType:               r.String("PackageType"),
		HScode:                    r.String("HScode"),
		MarksAndNumbers:           r.String("MarksAndNumbers"),
		FormattedItemWeight:       n0(r, "ItemWeight"),
		FormattedQuantity:         n0(r, "Quantity"),
		FormattedOriginalQuantity: n0(r, "OriginalQuantity"),
	}
}

func (i *Item) Fields() []markup.Field {
	return []markup.Field{
		markup.Scalar("ItemSequence", i.ItemSequence),
		markup.Scalar("CargoDescription", i.CargoDescription),
		markup.Scalar("ItemWeight", i.ItemWeight),
		markup.Scalar("Quantity", i.Quantity),
		markup.Scalar("OriginalQuantity", i.OriginalQuantity),
		markup.Scalar("PackageType", i.PackageType),
		markup.Scalar("HScode", i.HScode),
		markup.Scalar("MarksAndNumbers", i.MarksAndNumbers),
		markup.Scalar("FormattedItemWeight", i.FormattedItemWeight),
		markup.Scalar("FormattedQuantity", i.FormattedQuantity),
		markup.Scalar("FormattedOriginalQuantity", i.FormattedOriginalQuantity),
	}
}

// Control1050 is a container movement control record.
type Control1050 struct {
	DocumentNumber  string
	ContainerNumber string
	ExitedFrom      string
	OnTheWayTime    *time.Time
	MoveDate        *time.Time
	SealNumber      string
	Seal2Number     string
	DriverID        *int64
	TruckID         string
	QuantityOnMove  *int64

	FormattedMoveDate       string
	FormattedQuantityOnMove string
}

func control1050FromRecord(r core.Record) *Control1050 {
	c := &Control1050{
		DocumentNumber:          r.String("DocumentNumber"),
		ContainerNumber:         r.String("ContainerNumber"),
		ExitedFrom:              r.String("ExitedFrom"),
		OnTheWayTime:            r.Time("OnTheWayTime"),
		MoveDate:                r.Time("MoveDate"),
		SealNumber:              r.String("SealNumber"),
		Seal2Number:             r.String("Seal2Number"),
		DriverID:                optInt(r, "DriverID"),
		TruckID:                 r.String("TruckID"),
		QuantityOnMove:          optInt(r, "QuantityOnMove"),
		FormattedQuantityOnMove: n0(r, "QuantityOnMove"),
	}
	c.FormattedMoveDate = formatTime(c.MoveDate, shortDateLayout)
	return c
}

func (c *Control1050) Fields() []markup.Field {
	return []markup.Field{
		markup.Scalar("DocumentNumber", c.DocumentNumber),
		markup.Scalar("ContainerNumber", c.ContainerNumber),
		markup.Scalar("ExitedFrom", c.ExitedFrom),
		markup.Scalar("OnTheWayTime", c.OnTheWayTime),
		markup.Scalar("MoveDate", c.MoveDate),
		markup.Scalar("SealNumber", c.SealNumber),
		markup.Scalar("Seal2Number", c.Seal2Number),
		markup.Scalar("DriverID", c.DriverID),
		markup.Scalar("TruckID", c.TruckID),
		markup.Scalar("QuantityOnMove", c.QuantityOnMove),
		markup.Scalar("FormattedMoveDate", c.FormattedMoveDate),
		markup.Scalar("FormattedQuantityOnMove", c.FormattedQuantityOnMove),
	}
}

// ConsignmentRelease is a customs release of a consignment.
type ConsignmentRelease struct {
	ConsignmentID    string
	CustomsAgent     string
	CustomsAgentID   string
	CustomsAgentFile string
	ImporterName     string
	ReleaseDate      *time.Time
	DeclarationID    *int64
	DealValueNIS     *float64
	FobValueNis      *float64
	InternalRemarks  string
	CustomerRemarks  string
}

func releaseFromRecord(r core.Record) *ConsignmentRelease {
	return &ConsignmentRelease{
		ConsignmentID:    r.String("ConsignmentID"),
		CustomsAgent:     r.String("CustomsAgent"),
		CustomsAgentID:   r.String("CustomsAgentID"),
		CustomsAgentFile: r.String("CustomsAgentFile"),
		ImporterName:     r.String("ImporterName"),
		ReleaseDate:      r.Time("ReleaseDate"),
		DeclarationID:    optInt(r, "DeclarationID"),
		DealValueNIS:     optFloat(r, "DealValueNIS"),
		FobValueNis:      optFloat(r, "FobValueNis"),
		InternalRemarks:  r.String("InternalRemarks"),
		CustomerRemarks:  r.String("CustomerRemarks"),
	}
}

func (c *ConsignmentRelease) Fields() []markup.Field {
	return []markup.Field{
		markup.Scalar("ConsignmentID", c.ConsignmentID),
		markup.Scalar("CustomsAgent", c.CustomsAgent),
		markup.Scalar("CustomsAgentID", c.CustomsAgentID),
		markup.Scalar("CustomsAgentFile", c.CustomsAgentFile),
		markup.Scalar("ImporterName", c.ImporterName),
		markup.Scalar("ReleaseDate", c.ReleaseDate),
		markup.Scalar("DeclarationID", c.DeclarationID),
		markup.Scalar("DealValueNIS", c.DealValueNIS),
		markup.Scalar("FobValueNis", c.FobValueNis),
		markup.Scalar("InternalRemarks", c.InternalRemarks),
		markup.Scalar("CustomerRemarks", c.CustomerRemarks),
	}
}

// ReleaseItem is one goods line of a release.
type ReleaseItem struct {
	ItemSequence         *int64
	CargoDescription     string
	ItemWeight           *float64
	Quantity             *int64
	PackageType          string
	HScode               string
	AgentFileReferenceID string
	MarksAndNumbers      string

	FormattedItemWeight string
	FormattedQuantity   string
}

func releaseItemFromRecord(r core.Record) *ReleaseItem {
	return &ReleaseItem{
		ItemSequence:         optInt(r, "ItemSequence"),
		CargoDescription:     r.String("CargoDescription"),
		ItemWeight:           optFloat(r, "ItemWeight"),
		Quantity:             optInt(r, "Quantity"),
		PackageType:          r.String("PackageType"),
		HScode:               r.String("HScode"),
		AgentFileReferenceID: r.String("AgentFileReferenceID"),
		MarksAndNumbers:      r.String("MarksAndNumbers"),
		FormattedItemWeight:  n0(r, "ItemWeight"),
		FormattedQuantity:    n0(r, "Quantity"),
	}
}

func (i *ReleaseItem) Fields() []markup.Field {
	return []markup.Field{
		markup.Scalar("ItemSequence", i.ItemSequence),
		markup.Scalar("CargoDescription", i.CargoDescription),
		markup.Scalar("ItemWeight", i.ItemWeight),
		markup.Scalar("Quantity", i.Quantity),
		markup.Scalar("PackageType", i.PackageType),
		markup.Scalar("HScode", i.HScode),
		markup.Scalar("AgentFileReferenceID", i.AgentFileReferenceID),
		markup.Scalar("MarksAndNumbers", i.MarksAndNumbers),
		markup.Scalar("FormattedItemWeight", i.FormattedItemWeight),
		markup.Scalar("FormattedQuantity", i.FormattedQuantity),
	}
}

// EntryLine is one declared line of an entry.
type EntryLine struct {
	LineNum              *int64
	LineID               string
	LineDesc             string
	LinePackType         string
	Location             string
	LineQuantityDeclared *int64
	LastUpdated          *time.Time

	FormattedLineQuantityDeclared string
}

func entryLineFromRecord(r core.Record) *EntryLine {
	return &EntryLine{
		LineNum:                       optInt(r, "LineNum"),
		LineID:                        r.String("LineID"),
		LineDesc:                      r.String("LineDesc"),
		LinePackType:                  r.String("LinePackType"),
		Location:                      r.String("Location"),
		LineQuantityDeclared:          optInt(r, "LineQuantityDeclared"),
		LastUpdated:                   r.Time("LastUpdated"),
		FormattedLineQuantityDeclared: n0(r, "LineQuantityDeclared"),
	}
}

func (l *EntryLine) Fields() []markup.Field {
	return []markup.Field{
		markup.Scalar("LineNum", l.LineNum),
		markup.Scalar("LineID", l.LineID),
		markup.Scalar("LineDesc", l.LineDesc),
		markup.Scalar("LinePackType", l.LinePackType),
		markup.Scalar("Location", l.Location),
		markup.Scalar("LineQuantityDeclared", l.LineQuantityDeclared),
		markup.Scalar("LastUpdated", l.LastUpdated),
		markup.Scalar("FormattedLineQuantityDeclared", l.FormattedLineQuantityDeclared),
	}
}

// LineMove is an entry line with its movement balances.
type LineMove struct {
	LineNum                 *int64
	LineID                  string
	LinePackType            string
	LineQuantityDeclared    *int64
	TotalQuantityMoveBefore *int64
	BalanceDelivery         *int64
	TotalQuantityMoveNow    *int64
	NewBalanceDelivery      *int64
	NotArrived              *int64
}

// lineMoveColumns are the quantity columns of a LineMove, in display order.
var lineMoveColumns = []string{
	"LineQuantityDeclared",
	"TotalQuantityMoveBefore",
	"BalanceDelivery",
	"TotalQuantityMoveNow",
	"NewBalanceDelivery",
	"NotArrived",
}

func lineMoveFromRecord(r core.Record) *LineMove {
	return &LineMove{
		LineNum:                 optInt(r, "LineNum"),
		LineID:                  r.String("LineID"),
		LinePackType:            r.String("LinePackType"),
		LineQuantityDeclared:    optInt(r, "LineQuantityDeclared"),
		TotalQuantityMoveBefore: optInt(r, "TotalQuantityMoveBefore"),
		BalanceDelivery:         optInt(r, "BalanceDelivery"),
		TotalQuantityMoveNow:    optInt(r, "TotalQuantityMoveNow"),
		NewBalanceDelivery:      optInt(r, "NewBalanceDelivery"),
		NotArrived:              optInt(r, "NotArrived"),
	}
}

func (l *LineMove) quantity(col string) *int64 {
	switch col {
	case "LineQuantityDeclared":
		return l.LineQuantityDeclared
	case "TotalQuantityMoveBefore":
		return l.TotalQuantityMoveBefore
	case "BalanceDelivery":
		return l.BalanceDelivery
	case "TotalQuantityMoveNow":
		return l.TotalQuantityMoveNow
	case "NewBalanceDelivery":
		return l.NewBalanceDelivery
	case "NotArrived":
		return l.NotArrived
	}
	return nil
}

func (l *LineMove) Fields() []markup.Field {
	fields := []markup.Field{
		markup.Scalar("LineNum", l.LineNum),
		markup.Scalar("LineID", l.LineID),
		markup.Scalar("LinePackType", l.LinePackType),
	}
	for _, col := range lineMoveColumns {
		q := l.quantity(col)
		fields = append(fields,
			markup.Scalar(col, q),
			markup.Scalar("Formatted"+col, formatQuantity(q)),
		)
	}
	return fields
}
