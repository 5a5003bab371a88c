package core

import (
	"context"
)

// Bound is the typed aggregate a binder produces. The set of
// implementations is closed: types outside this module embed Sealed to
// join it, which keeps arbitrary values from reaching a renderer.
type Bound interface {
	// HasMaster reports whether the aggregate's master record is present.
	HasMaster() bool
	bound()
}

// Sealed is embedded by every Bound implementation.
type Sealed struct{}

func (Sealed) bound() {}

// BindInput is what a binder receives.
type BindInput struct {
	Sets     ResultSets
	Params   Params // request parameters, before bookkeeping removal
	Manifest *Manifest
}

// Request parameter names the engine itself interprets.
const (
	// GroupByParam selects grouped tabular mode. It never reaches the fetch.
	GroupByParam = "GroupBy"

	// ManifestParam carries the bonded warehouse id to every procedure.
	ManifestParam = "ManifestID"
)

// DefaultManifestProcedure fetches the manifest header record.
const DefaultManifestProcedure = "GetManifestByManifestID"

// manifestSet is the result set name of the manifest header fetch.
const manifestSet = "manifest"

// bookkeepingKeys are removed from every fetch. Per-report keys are added
// by Schema.Remove.
var bookkeepingKeys = []string{GroupByParam}

// FetchParams returns the parameters the report procedure receives:
// bookkeeping keys removed and ManifestID injected when the schema asks
// for it.
func FetchParams(schema Schema, req *Request) Params {
	remove := make([]string, 0, len(bookkeepingKeys)+len(schema.Remove))
	remove = append(remove, bookkeepingKeys...)
	remove = append(remove, schema.Remove...)

	p := req.Parameters.Without(remove...)
	if schema.InjectManifest {
		p = p.With(ManifestParam, req.ManifestID)
	}
	return p
}

// Bind fetches the manifest header and the report's named result sets from
// src and maps them into the report's aggregate.
func (s *Service) Bind(ctx context.Context, src DataSource, def Definition, req *Request) (Bound, error) {
	m, err := s.fetchManifest(ctx, src, req.ManifestID)
	if err != nil {
		return nil, err
	}
	return s.bind(ctx, src, def, req, m)
}

func (s *Service) fetchManifest(ctx context.Context, src DataSource, manifestID string) (*Manifest, error) {
	sets, err := src.Fetch(ctx, FetchSpec{
		Procedure: s.manifestProcedure,
		Params:    NewParams(ManifestParam, manifestID),
		Sets:      []ResultSetSpec{{Name: manifestSet, Single: true}},
	})
	if err != nil {
		return nil, Wrap(DataAccessFailure, err)
	}
	row, ok := sets.Lookup(manifestSet)
	if !ok {
		return nil, Errorf(NoDataFound, "manifest %s not found", manifestID)
	}
	return ManifestFromRecord(row), nil
}

func (s *Service) bind(ctx context.Context, src DataSource, def Definition, req *Request, m *Manifest) (Bound, error) {
	spec := FetchSpec{
		Procedure: def.Schema.Procedure,
		Params:    FetchParams(def.Schema, req),
		Sets:      def.Schema.Sets,
	}

	sets, err := src.Fetch(ctx, spec)
	if err != nil {
		return nil, Wrap(DataAccessFailure, err)
	}
	for _, set := range spec.Sets {
		if !set.Optional && sets[set.Name] == nil {
			return nil, Errorf(DataAccessFailure, "%s: result set %q missing", spec.Procedure, set.Name)
		}
	}

	b, err := def.Bind(BindInput{Sets: sets, Params: req.Parameters, Manifest: m})
	if err != nil {
		return nil, Wrap(GlobalError, err)
	}
	if b == nil || !b.HasMaster() {
		return nil, Errorf(NoDataFound, "%s: no %s record", def.ID, def.Schema.Master())
	}
	return b, nil
}
