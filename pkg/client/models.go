package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// Ingest checks a model document on the server and stores it.
func (c *Client) Ingest(ctx context.Context, model *stypes.ModelDTO) (*stypes.ModelSummary, error) {
	if model == nil {
		return nil, errors.InvalidParam("model is required")
	}
	var sum stypes.ModelSummary
	if err := c.do(ctx, http.MethodPost, "/models", nil, model, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Get returns the stored model document.
func (c *Client) Get(ctx context.Context, id common.ID) (*stypes.ModelDTO, error) {
	var dto stypes.ModelDTO
	if err := c.do(ctx, http.MethodGet, modelPath(id), nil, nil, &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

func (c *Client) Summary(ctx context.Context, id common.ID) (*stypes.ModelSummary, error) {
	var sum stypes.ModelSummary
	if err := c.do(ctx, http.MethodGet, modelPath(id, "summary"), nil, nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Export returns the document with bonds and its content digest.
func (c *Client) Export(ctx context.Context, id common.ID) (*stypes.ExportResult, error) {
	var out stypes.ExportResult
	if err := c.do(ctx, http.MethodGet, modelPath(id, "export"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of model headers, newest first.
func (c *Client) List(ctx context.Context, page common.Pagination) (*common.PageResponse[*stypes.ModelHeader], error) {
	q := url.Values{}
	if page.Page > 0 {
		q.Set("page", itoa(page.Page))
	}
	if page.PageSize > 0 {
		q.Set("page_size", itoa(page.PageSize))
	}
	var res common.PageResponse[*stypes.ModelHeader]
	if err := c.do(ctx, http.MethodGet, "/models", q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Delete(ctx context.Context, id common.ID) error {
	return c.do(ctx, http.MethodDelete, modelPath(id), nil, nil, nil)
}

func (c *Client) AddSmallMolecule(ctx context.Context, id common.ID, sm stypes.SmallMoleculeDTO) (*stypes.ModelSummary, error) {
	var sum stypes.ModelSummary
	if err := c.do(ctx, http.MethodPost, modelPath(id, "small-molecules"), nil, sm, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *Client) RemoveSmallMolecule(ctx context.Context, id common.ID, moleculeID string) (*stypes.ModelSummary, error) {
	var sum stypes.ModelSummary
	if err := c.do(ctx, http.MethodDelete, modelPath(id, "small-molecules", moleculeID), nil, nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *Client) AddBetaStrand(ctx context.Context, id common.ID, chainID string, strand stypes.BetaStrandDTO) (*stypes.ModelSummary, error) {
	var sum stypes.ModelSummary
	if err := c.do(ctx, http.MethodPost, modelPath(id, "chains", chainID, "beta-strands"), nil, strand, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *Client) AddHelix(ctx context.Context, id common.ID, chainID string, helix stypes.HelixDTO) (*stypes.ModelSummary, error) {
	var sum stypes.ModelSummary
	if err := c.do(ctx, http.MethodPost, modelPath(id, "chains", chainID, "helices"), nil, helix, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Select returns the atoms matching expr; an empty expression selects all.
func (c *Client) Select(ctx context.Context, id common.ID, expr string) ([]stypes.AtomView, error) {
	q := url.Values{}
	if expr != "" {
		q.Set("select", expr)
	}
	var atoms []stypes.AtomView
	if err := c.do(ctx, http.MethodGet, modelPath(id, "atoms"), q, nil, &atoms); err != nil {
		return nil, err
	}
	return atoms, nil
}

// Events returns the model's recorded changes, oldest first. limit 0 means
// the server default.
func (c *Client) Events(ctx context.Context, id common.ID, limit int) ([]stypes.StructureEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", itoa(limit))
	}
	var events []stypes.StructureEvent
	if err := c.do(ctx, http.MethodGet, modelPath(id, "events"), q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Search queries the model catalogue.
func (c *Client) Search(ctx context.Context, query stypes.CatalogueQuery) (*stypes.CatalogueResult, error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", query.Text)
	set("motif", query.Motif)
	set("chain", query.ChainID)
	for _, el := range query.Elements {
		q.Add("element", el)
	}
	for k, v := range map[string]int{
		"min_atoms": query.MinAtoms, "max_atoms": query.MaxAtoms, "offset": query.Offset, "limit": query.Limit,
	} {
		if v > 0 {
			q.Set(k, itoa(v))
		}
	}
	var res stypes.CatalogueResult
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//Personal.AI order the ending
