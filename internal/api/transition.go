package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

// TransitionBody is the payload of a workflow action call.
type TransitionBody struct {
	ActorID int64  `json:"actor_id,omitempty"`
	Remarks string `json:"remarks,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Transition posts a workflow action and returns the updated entity. The
// backend is the authority on the resulting status. Identical concurrent
// transitions share one request carrying a single Idempotency-Key.
func (c *Client) Transition(ctx context.Context, kind workflow.Kind, id int64, action workflow.Action, body TransitionBody) (workflow.Subject, error) {
	kind, err := workflow.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	action, err = workflow.ParseAction(string(action))
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/%s/%d/%s", kind.Resource(), id, action.Segment())
	fingerprint, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     path,
		body:     body,
		headers:  map[string]string{"Idempotency-Key": uuid.NewString()},
		shareKey: http.MethodPost + " " + path + " " + string(fingerprint),
	})
	if err != nil {
		return nil, err
	}
	return decodeSubject(kind, raw)
}

// Subject fetches the current state of one workflow entity.
func (c *Client) Subject(ctx context.Context, kind workflow.Kind, id int64) (workflow.Subject, error) {
	kind, err := workflow.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/%s/%d", kind.Resource(), id)
	raw, err := c.do(ctx, request{method: http.MethodGet, path: path, shareKey: http.MethodGet + " " + path})
	if err != nil {
		return nil, err
	}
	return decodeSubject(kind, raw)
}
