package indexer

import (
	"encoding/json"

	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
)

type wireAnchor struct {
	URL      string `json:"url"`
	DataHash string `json:"data_hash"`
}

type wireDRep struct {
	DRepID      string          `json:"drep_id"`
	Hex         string          `json:"hex"`
	View        string          `json:"view"`
	URL         string          `json:"url"`
	Status      string          `json:"status"`
	Active      *bool           `json:"active"`
	ActiveEpoch int             `json:"active_epoch"`
	VotingPower json.Number     `json:"voting_power,omitempty"`
	Anchor      *wireAnchor     `json:"anchor"`
	Metadata    json.RawMessage `json:"metadata"`
}

type wireAction struct {
	ActionID string          `json:"action_id"`
	TxHash   string          `json:"tx_hash"`
	Type     string          `json:"type"`
	Status   string          `json:"status"`
	MetaURL  string          `json:"meta_url"`
	MetaHash string          `json:"meta_hash"`
	MetaJSON json.RawMessage `json:"meta_json"`
	Metadata json.RawMessage `json:"metadata"`
}

type wireDRepsPage struct {
	DReps   []wireDRep `json:"dreps"`
	HasMore bool       `json:"has_more"`
	Total   *int64     `json:"total"`
}

type wireActionsPage struct {
	Actions []wireAction `json:"actions"`
	HasMore bool         `json:"has_more"`
	Total   *int64       `json:"total"`
}

func decodeDRepsPage(body []byte) (domain.Page, error) {
	var wp wireDRepsPage
	if err := json.Unmarshal(body, &wp); err != nil {
		return domain.Page{}, err
	}
	page := domain.Page{Entities: make([]domain.Entity, 0, len(wp.DReps)), HasMore: wp.HasMore, Total: wp.Total}
	for _, d := range wp.DReps {
		page.Entities = append(page.Entities, d.entity())
	}
	return page, nil
}

func decodeActionsPage(body []byte) (domain.Page, error) {
	var wp wireActionsPage
	if err := json.Unmarshal(body, &wp); err != nil {
		return domain.Page{}, err
	}
	page := domain.Page{Entities: make([]domain.Entity, 0, len(wp.Actions)), HasMore: wp.HasMore, Total: wp.Total}
	for _, a := range wp.Actions {
		page.Entities = append(page.Entities, a.entity())
	}
	return page, nil
}

func (d wireDRep) entity() domain.Entity {
	e := domain.Entity{
		ID:          d.DRepID,
		Kind:        domain.KindDRep,
		Hex:         d.Hex,
		View:        d.View,
		Status:      d.Status,
		Active:      d.Active,
		ActiveEpoch: d.ActiveEpoch,
		VotingPower: d.VotingPower.String(),
		RawMetadata: rawValue(d.Metadata),
	}
	switch {
	case d.Anchor != nil && d.Anchor.URL != "":
		e.Anchor = &domain.Anchor{URL: d.Anchor.URL, DataHash: d.Anchor.DataHash}
	case d.URL != "":
		e.Anchor = &domain.Anchor{URL: d.URL}
	}
	return e
}

func (a wireAction) entity() domain.Entity {
	e := domain.Entity{
		ID:          a.ActionID,
		Kind:        domain.KindAction,
		TxHash:      a.TxHash,
		ActionType:  a.Type,
		Status:      a.Status,
		RawMetadata: rawValue(a.Metadata),
	}
	if !e.RawMetadata.Defined() || e.RawMetadata.IsNull() {
		e.RawMetadata = rawValue(a.MetaJSON)
	}
	if a.MetaURL != "" {
		e.Anchor = &domain.Anchor{URL: a.MetaURL, DataHash: a.MetaHash}
	}
	return e
}

// rawValue decodifica metadatos embebidos; un blob invalido se ignora.
func rawValue(raw json.RawMessage) jsonvalue.Value {
	if len(raw) == 0 {
		return jsonvalue.Value{}
	}
	v, err := jsonvalue.Decode(raw)
	if err != nil {
		return jsonvalue.Value{}
	}
	return v
}
