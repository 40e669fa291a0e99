// Package classify maps service errors to client-facing responses. Known
// failures carry a common.ErrorCode; everything else is logged and reported
// as a bare 500 so internal details never reach the client.
package classify

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
)

// Detail is one entry of the {"errors": [...]} response body.
type Detail struct {
	Code    common.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Body is the JSON error envelope.
type Body struct {
	Errors []Detail `json:"errors"`
}

// Response is the classification result. Body is nil for unclassified
// errors, which must be sent with an empty body.
type Response struct {
	Status int
	Body   *Body
}

// Entry is the registry value for one code.
type Entry struct {
	Status  int
	Message string
}

// DefaultRegistry lists every code the server reports.
var DefaultRegistry = map[common.ErrorCode]Entry{
	common.CodeEmailFailCriteria:    {http.StatusBadRequest, "Email does not meet the required criteria"},
	common.CodeInvalidEmail:         {http.StatusBadRequest, "Invalid email"},
	common.CodePasswordFailCriteria: {http.StatusBadRequest, "Password does not meet the required criteria"},
	common.CodeInvalidPassword:      {http.StatusBadRequest, "Invalid password"},

	common.CodeUserExists:        {http.StatusBadRequest, "A user with the given username is already registered"},
	common.CodeMissingPassword:   {http.StatusBadRequest, "No password was given"},
	common.CodeIncorrectPassword: {http.StatusBadRequest, "Password or username is incorrect"},
	common.CodeInvalidCode:       {http.StatusBadRequest, "The link is invalid or has expired"},

	common.CodeFlightNotFound:       {http.StatusNotFound, "Flight not found"},
	common.CodeFlightExists:         {http.StatusConflict, "A flight with that name already exists"},
	common.CodeFlightSubmitted:      {http.StatusBadRequest, "Flight has already been submitted"},
	common.CodeFlightIncomplete:     {http.StatusBadRequest, "All scoresheets in the flight must be validated first"},
	common.CodeScoresheetNotFound:   {http.StatusNotFound, "Scoresheet not found"},
	common.CodeScoresheetExists:     {http.StatusConflict, "Scoresheet for this entry already exists"},
	common.CodeScoresheetLocked:     {http.StatusBadRequest, "Scoresheet can no longer be edited"},
	common.CodeScoresheetIncomplete: {http.StatusBadRequest, "Scoresheet is incomplete"},
	common.CodeInvalidField:         {http.StatusBadRequest, "Invalid field"},
	common.CodeForbidden:            {http.StatusForbidden, "Forbidden"},
}

// GenericMessage is shown in form flows for unclassified errors.
const GenericMessage = "Something went wrong, please try again"

type Classifier struct {
	registry map[common.ErrorCode]Entry
	logger   logging.Logger
}

func New(registry map[common.ErrorCode]Entry, l logging.Logger) *Classifier {
	return &Classifier{registry: registry, logger: l.With("module", "classifier")}
}

// Classify turns err into a Response. FieldErrors become a 400 with one
// detail per field.
func (c *Classifier) Classify(ctx context.Context, err error) Response {
	var fe common.FieldErrors
	if errors.As(err, &fe) && !fe.Empty() {
		details := make([]Detail, 0, len(fe))
		for _, f := range fe {
			details = append(details, Detail{Code: common.CodeInvalidField, Message: f.Message})
		}
		return Response{Status: http.StatusBadRequest, Body: &Body{Errors: details}}
	}

	if code, ok := common.CodeOf(err); ok {
		if entry, ok := c.registry[code]; ok {
			return Response{
				Status: entry.Status,
				Body:   &Body{Errors: []Detail{{Code: code, Message: entry.Message}}},
			}
		}
	}

	c.logger.Error(ctx, "unclassified error", "error", err)
	return Response{Status: http.StatusInternalServerError}
}

// FlashMessages returns the human-readable messages for err, for flows that
// report errors through flash messages instead of JSON.
func (c *Classifier) FlashMessages(ctx context.Context, err error) []string {
	resp := c.Classify(ctx, err)
	if resp.Body == nil {
		return []string{GenericMessage}
	}
	out := make([]string, 0, len(resp.Body.Errors))
	for _, d := range resp.Body.Errors {
		out = append(out, d.Message)
	}
	return out
}
