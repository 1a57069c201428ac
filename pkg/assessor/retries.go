package assessor

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const retriesKey = "x-speakeasy-retries"

// RetriesBlock is the typed form of an x-speakeasy-retries
// extension. Backoff stays loosely typed so that presence of each
// field can be checked.
type RetriesBlock struct {
	Strategy              string         `mapstructure:"strategy"`
	Backoff               map[string]any `mapstructure:"backoff"`
	StatusCodes           []any          `mapstructure:"statusCodes"`
	RetryConnectionErrors bool           `mapstructure:"retryConnectionErrors"`
}

// RetriesConfig validates every x-speakeasy-retries block in the
// document at path.
func (a *Assessor) RetriesConfig(path string) *Result {
	r := NewResult()
	doc, ok := a.load(r, path, "document_exists")
	if !ok {
		return r.finish()
	}
	blocks := collect(doc, retriesKey)
	r.Require("has_retries", len(blocks) > 0, fmt.Sprintf("%d retries blocks found", len(blocks)))
	if len(blocks) == 0 {
		return r.finish()
	}
	Merge(r, retriesChecks(blocks), "")
	return r.finish()
}

func retriesChecks(blocks []any) *Result {
	r := NewResult()
	for i, raw := range blocks {
		prefix := ""
		if i > 0 {
			prefix = fmt.Sprintf("block_%d_", i+1)
		}

		var block RetriesBlock
		if raw == nil {
			r.Fail(prefix+"well_formed", fmt.Sprintf("retries block %d is empty", i+1))
			continue
		}
		if err := mapstructure.WeakDecode(raw, &block); err != nil {
			r.Fail(prefix+"well_formed", fmt.Sprintf("retries block %d malformed: %v", i+1, err))
			continue
		}

		r.Require(prefix+"has_strategy", block.Strategy != "", presence(block.Strategy != "", "strategy"))

		if block.Strategy == "backoff" {
			hasBackoff := block.Backoff != nil
			r.Require(prefix+"has_backoff", hasBackoff, presence(hasBackoff, "backoff block"))
			if hasBackoff {
				_, initial := block.Backoff["initialInterval"]
				_, maxInterval := block.Backoff["maxInterval"]
				_, exponent := block.Backoff["exponent"]
				r.Require(prefix+"backoff_has_interval", initial || maxInterval,
					presence(initial || maxInterval, "backoff interval"))
				r.Require(prefix+"backoff_has_exponent", exponent,
					presence(exponent, "backoff exponent"))
			}
		}

		r.Add(prefix+"has_status_codes", len(block.StatusCodes) > 0,
			fmt.Sprintf("%d status codes", len(block.StatusCodes)))
	}
	return r.finish()
}
