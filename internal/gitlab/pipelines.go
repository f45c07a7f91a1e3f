// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Pipeline is the subset of a pipeline glops reads.
type Pipeline struct {
	ID         int    `json:"id"`
	Ref        string `json:"ref"`
	Status     string `json:"status"`
	WebURL     string `json:"web_url"`
	YamlErrors string `json:"yaml_errors"`
}

// CreatePipeline triggers a pipeline for ref (branch, tag or other reference).
func (c *Client) CreatePipeline(ctx context.Context, projectID, ref string) (*Pipeline, error) {
	q := url.Values{}
	q.Set("ref", ref)

	var p Pipeline
	endpoint := fmt.Sprintf("/projects/%s/pipeline", PathID(projectID))
	if err := c.do(ctx, http.MethodPost, endpoint, q, nil, &p); err != nil {
		return nil, fmt.Errorf("creating pipeline for %s in project %s: %w", ref, projectID, err)
	}
	return &p, nil
}
