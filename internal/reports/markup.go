package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/markup"
)

// Result set names of the markup reports.
const (
	setConsignment  = "consignment"
	setItems        = "items"
	setControl1050  = "control1050"
	setRelease      = "consignment_release"
	setReleaseItems = "release_items"
	setEntryLines   = "entry_lines"
	setLineMoves    = "line_moves"
)

// VarSequenceParam is the request parameter copied onto entry split pages.
const VarSequenceParam = "VarSequence"

func formatQuantity(q *int64) string {
	if q == nil {
		return ""
	}
	return core.FormatThousands(decimal.NewFromInt(*q))
}

// sumQuantity adds the non-null values of get over items.
func sumQuantity[T any](items []T, get func(T) *int64) string {
	var total int64
	for _, it := range items {
		if q := get(it); q != nil {
			total += *q
		}
	}
	return core.FormatThousands(decimal.NewFromInt(total))
}

func consignmentOrEmpty(c *Consignment) *Consignment {
	if c == nil {
		return &Consignment{}
	}
	return c
}

func mapRecords[T any](t *core.Table, from func(core.Record) T) []T {
	out := make([]T, 0, t.Len())
	for _, r := range t.Records() {
		out = append(out, from(r))
	}
	return out
}

// DeliveryOrder is the R912470 aggregate.
type DeliveryOrder struct {
	core.Sealed
	Manifest    *core.Manifest
	Consignment *Consignment
	Items       []*Item
	Controls    []*Control1050
}

func (d *DeliveryOrder) HasMaster() bool { return d.Consignment != nil }

// TotalSum is the total item quantity.
func (d *DeliveryOrder) TotalSum() string {
	return sumQuantity(d.Items, func(i *Item) *int64 { return i.Quantity })
}

// ContainersNumber lists the container numbers of the movements.
func (d *DeliveryOrder) ContainersNumber() string {
	nums := make([]string, len(d.Controls))
	for i, c := range d.Controls {
		nums[i] = c.ContainerNumber
	}
	return strings.Join(nums, ", ")
}

func (d *DeliveryOrder) Fields() []markup.Field {
	return []markup.Field{
		markup.Nested("Manifest", manifestFields{d.Manifest}),
		markup.Nested("Consignment", consignmentOrEmpty(d.Consignment)),
		markup.Collection("ItemsList", d.Items),
		markup.Collection("Control1050List", d.Controls),
		markup.Scalar("TotalSum", d.TotalSum()),
		markup.Scalar("ContainersNumber", d.ContainersNumber()),
	}
}

func bindDeliveryOrder(in core.BindInput) (core.Bound, error) {
	d := &DeliveryOrder{
		Manifest: in.Manifest,
		Items:    mapRecords(in.Sets.Table(setItems), itemFromRecord),
		Controls: mapRecords(in.Sets.Table(setControl1050), control1050FromRecord),
	}
	if r, ok := in.Sets.Lookup(setConsignment); ok {
		d.Consignment = consignmentFromRecord(r)
	}
	return d, nil
}

// ReleaseOrder is the R2470 aggregate.
type ReleaseOrder struct {
	core.Sealed
	Manifest    *core.Manifest
	Release     *ConsignmentRelease
	Consignment *Consignment
	Items       []*ReleaseItem
}

func (r *ReleaseOrder) HasMaster() bool { return r.Release != nil }

// TotalSum is the total released quantity.
func (r *ReleaseOrder) TotalSum() string {
	return sumQuantity(r.Items, func(i *ReleaseItem) *int64 { return i.Quantity })
}

// CargoDescription joins the released items' descriptions.
func (r *ReleaseOrder) CargoDescription() string {
	descs := make([]string, len(r.Items))
	for i, it := range r.Items {
		descs[i] = it.CargoDescription
	}
	return strings.Join(descs, ", ")
}

// IsCustomsAgentIDNotSame reports whether the release was filed by a
// different customs agent than the consignment's.
func (r *ReleaseOrder) IsCustomsAgentIDNotSame() bool {
	return consignmentOrEmpty(r.Consignment).CustomsAgentID != r.Release.CustomsAgentID
}

func (r *ReleaseOrder) Fields() []markup.Field {
	release := r.Release
	if release == nil {
		release = &ConsignmentRelease{}
	}
	return []markup.Field{
		markup.Nested("Manifest", manifestFields{r.Manifest}),
		markup.Nested("ConsignmentRelease", release),
		markup.Nested("Consignment", consignmentOrEmpty(r.Consignment)),
		markup.Collection("ConsignmentReleaseItemList", r.Items),
		markup.Scalar("TotalSum", r.TotalSum()),
		markup.Scalar("CargoDescription", r.CargoDescription()),
		markup.Scalar("IsCustomsAgentIDNotSame", r.Release != nil && r.IsCustomsAgentIDNotSame()),
	}
}

func bindReleaseOrder(in core.BindInput) (core.Bound, error) {
	r := &ReleaseOrder{
		Manifest: in.Manifest,
		Items:    mapRecords(in.Sets.Table(setReleaseItems), releaseItemFromRecord),
	}
	if rec, ok := in.Sets.Lookup(setRelease); ok {
		r.Release = releaseFromRecord(rec)
	}
	if rec, ok := in.Sets.Lookup(setConsignment); ok {
		r.Consignment = consignmentFromRecord(rec)
	}
	return r, nil
}

// EntrySplit is the R60split aggregate, one per consignment.
type EntrySplit struct {
	core.Sealed
	Manifest    *core.Manifest
	Consignment *Consignment
	Lines       []*EntryLine
	VarSequence int
}

func (e *EntrySplit) HasMaster() bool { return e.Consignment != nil }

// SumLineQuantityDeclared is the total declared quantity.
func (e *EntrySplit) SumLineQuantityDeclared() string {
	return sumQuantity(e.Lines, func(l *EntryLine) *int64 { return l.LineQuantityDeclared })
}

func (e *EntrySplit) Fields() []markup.Field {
	return []markup.Field{
		markup.Nested("Manifest", manifestFields{e.Manifest}),
		markup.Nested("Consignment", consignmentOrEmpty(e.Consignment)),
		markup.Collection("EntryLineList", e.Lines),
		markup.Scalar("VarSequence", e.VarSequence),
		markup.Scalar("SumLineQuantityDeclared", e.SumLineQuantityDeclared()),
	}
}

func bindEntrySplit(in core.BindInput) (core.Bound, error) {
	e := &EntrySplit{
		Manifest: in.Manifest,
		Lines:    mapRecords(in.Sets.Table(setEntryLines), entryLineFromRecord),
	}
	if s := in.Params.String(VarSequenceParam); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", VarSequenceParam, s, err)
		}
		e.VarSequence = n
	}
	if r, ok := in.Sets.Lookup(setConsignment); ok {
		e.Consignment = consignmentFromRecord(r)
	}
	return e, nil
}

// MovePermit is the R24720P aggregate.
type MovePermit struct {
	core.Sealed
	Manifest    *core.Manifest
	Consignment *Consignment
	Moves       []*LineMove
}

func (m *MovePermit) HasMaster() bool { return m.Consignment != nil }

// VarSequence is the permit sequence derived from the gush number.
func (m *MovePermit) VarSequence() string {
	var gush string
	if c := m.Consignment; c != nil && c.Gush != nil {
		gush = strconv.FormatInt(*c.Gush, 10)
	}
	return gush + "-1"
}

func (m *MovePermit) Fields() []markup.Field {
	fields := []markup.Field{
		markup.Nested("Manifest", manifestFields{m.Manifest}),
		markup.Nested("Consignment", consignmentOrEmpty(m.Consignment)),
		markup.Collection("EntryLinesMovesViewCalcList", m.Moves),
		markup.Scalar("VarSequence", m.VarSequence()),
	}
	for _, col := range lineMoveColumns {
		if col == "NotArrived" {
			continue
		}
		fields = append(fields, markup.Scalar("Sum"+col,
			sumQuantity(m.Moves, func(l *LineMove) *int64 { return l.quantity(col) })))
	}
	return fields
}

func bindMovePermit(in core.BindInput) (core.Bound, error) {
	m := &MovePermit{
		Manifest: in.Manifest,
		Moves:    mapRecords(in.Sets.Table(setLineMoves), lineMoveFromRecord),
	}
	if r, ok := in.Sets.Lookup(setConsignment); ok {
		m.Consignment = consignmentFromRecord(r)
	}
	return m, nil
}

// ContainerTransfer is the R1050MT aggregate.
type ContainerTransfer struct {
	core.Sealed
	Manifest    *core.Manifest
	Consignment *Consignment
	Control     *Control1050
}

func (c *ContainerTransfer) HasMaster() bool { return c.Consignment != nil }

func (c *ContainerTransfer) Fields() []markup.Field {
	control := c.Control
	if control == nil {
		control = &Control1050{}
	}
	return []markup.Field{
		markup.Nested("Manifest", manifestFields{c.Manifest}),
		markup.Nested("Consignment", consignmentOrEmpty(c.Consignment)),
		markup.Nested("Control1050", control),
	}
}

func bindContainerTransfer(in core.BindInput) (core.Bound, error) {
	c := &ContainerTransfer{Manifest: in.Manifest}
	if r, ok := in.Sets.Lookup(setConsignment); ok {
		c.Consignment = consignmentFromRecord(r)
	}
	if r, ok := in.Sets.Lookup(setControl1050); ok {
		c.Control = control1050FromRecord(r)
	}
	return c, nil
}

// markupReports lists the markup definitions.
var markupReports = []struct {
	id        core.ReportID
	procedure string
	sets      []core.ResultSetSpec
	bind      core.BindFunc
}{
	{
		id: core.R912470,
		sets: []core.ResultSetSpec{
			{Name: setConsignment, Single: true},
			{Name: setItems},
			{Name: setControl1050},
		},
		bind: bindDeliveryOrder,
	},
	{
		id: core.R2470,
		sets: []core.ResultSetSpec{
			{Name: setRelease, Single: true},
			{Name: setConsignment, Single: true},
			{Name: setReleaseItems},
		},
		bind: bindReleaseOrder,
	},
	{
		id: core.R60split,
		sets: []core.ResultSetSpec{
			{Name: setConsignment, Single: true},
			{Name: setEntryLines},
		},
		bind: bindEntrySplit,
	},
	{
		id:        core.R24720P,
		procedure: "GetDataForR24720Report",
		sets: []core.ResultSetSpec{
			{Name: setConsignment, Single: true},
			{Name: setLineMoves},
		},
		bind: bindMovePermit,
	},
	{
		id: core.R1050MT,
		sets: []core.ResultSetSpec{
			{Name: setConsignment, Single: true},
			{Name: setControl1050, Single: true},
		},
		bind: bindContainerTransfer,
	},
}

// Keys added to every markup context at render time.
const (
	DatePrintKey  = "DatePrint"
	DateOpenKey   = "DateOpen"
	ReportNameKey = "ReportName"
	PrintedByKey  = "PrintedBy"
)

type markupRenderer struct {
	renderer *markup.Renderer
}

func (m markupRenderer) render(_ context.Context, in core.RenderInput) (*core.Document, error) {
	f, ok := in.Data.(markup.Flattener)
	if !ok {
		return nil, fmt.Errorf("%s: %T cannot be flattened", in.Descriptor.ID, in.Data)
	}

	ctx, err := markup.Flatten(f)
	if err != nil {
		return nil, err
	}
	stamp := in.Now.Format(dateTimeLayout)
	ctx[DatePrintKey] = stamp
	ctx[DateOpenKey] = stamp
	ctx[ReportNameKey] = in.Descriptor.Name
	if in.Request != nil {
		ctx[PrintedByKey] = in.Request.User
	}

	out, err := m.renderer.Render(ctx, markup.Templates{
		Body:   in.Descriptor.Template,
		Header: in.Descriptor.HeaderTemplate,
		Title:  in.Descriptor.TitleTemplate,
		Footer: in.Descriptor.FooterTemplate,
	})
	if err != nil {
		return nil, err
	}
	return &core.Document{Data: out, Format: core.DocHTML}, nil
}
