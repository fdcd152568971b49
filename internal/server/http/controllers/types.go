package controllers

import (
	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/internal/query"
)

// Common request/response types for HTTP controllers

// createLogTypeReq represents a request to create a log type.
type createLogTypeReq struct {
	Name string `json:"name"`
}

// addPlaceholderReq represents a request to append a placeholder.
type addPlaceholderReq struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// movePlaceholderReq represents a request to move a placeholder.
type movePlaceholderReq struct {
	Index int `json:"index"`
}

// commitReq represents a request to commit a log.
//
// Values are keyed by placeholder id. Quick commits the default log and
// ignores Values.
type commitReq struct {
	LogTypeID string            `json:"logTypeId"`
	Values    map[string]string `json:"values"`
	CreateAt  string            `json:"createAt"`
	Quick     bool              `json:"quick"`
}

// generateReq represents a request to generate random logs.
type generateReq struct {
	Count int `json:"count"`
	Days  int `json:"days"`
}

// logTypeView is a log type as returned by the API.
type logTypeView struct {
	logtype.SerializedLogType
	NeedsInput bool `json:"needsInput"`
}

func newLogTypeView(lt logtype.LogType) logTypeView {
	return logTypeView{SerializedLogType: logtype.Serialize(lt), NeedsInput: lt.NeedsInput()}
}

func newLogTypeViews(lts []logtype.LogType) []logTypeView {
	out := make([]logTypeView, len(lts))
	for i, lt := range lts {
		out[i] = newLogTypeView(lt)
	}
	return out
}

// draftView is a log type that may not have been persisted yet.
type draftView struct {
	logTypeView
	Persisted bool `json:"persisted"`
}

// revisionsView lists the revision snapshots of one log type.
type revisionsView struct {
	ID        string        `json:"id"`
	Revision  int           `json:"revision"`
	Revisions []logTypeView `json:"revisions"`
}

// diffView is a placeholder diff between two schema states.
type diffView struct {
	From    string                      `json:"from"`
	To      string                      `json:"to"`
	Changes []logtype.PlaceholderChange `json:"changes"`
}

// logView is a committed log joined with the schema it is bound to.
type logView struct {
	ID                string                     `json:"id"`
	LogTypeID         string                     `json:"logTypeId"`
	RevisionID        string                     `json:"revisionId"`
	Name              string                     `json:"name"`
	Color             string                     `json:"color"`
	Icon              string                     `json:"icon,omitempty"`
	CreateAt          string                     `json:"createAt"`
	Content           string                     `json:"content"`
	PlaceholderValues []journal.PlaceholderValue `json:"placeholderValues"`
}

func newLogView(l journal.Log) logView {
	values := l.PlaceholderValues
	if values == nil {
		values = []journal.PlaceholderValue{}
	}
	return logView{
		ID:                l.ID,
		LogTypeID:         l.LogType.CanonicalID(),
		RevisionID:        l.RevisionID,
		Name:              l.LogType.Name,
		Color:             l.LogType.Color,
		Icon:              l.LogType.Icon,
		CreateAt:          logtype.FormatTime(l.CreateAt),
		Content:           l.Content,
		PlaceholderValues: values,
	}
}

func newLogViews(logs []journal.Log) []logView {
	out := make([]logView, len(logs))
	for i, l := range logs {
		out[i] = newLogView(l)
	}
	return out
}

// sectionView is the logs of one calendar date.
type sectionView struct {
	Date string    `json:"date"`
	Logs []logView `json:"logs"`
}

func newSectionViews(sections []query.Section) []sectionView {
	out := make([]sectionView, len(sections))
	for i, s := range sections {
		out[i] = sectionView{Date: s.Date, Logs: newLogViews(s.Logs)}
	}
	return out
}
