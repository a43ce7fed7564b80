package assist

import (
	"context"
	"encoding/json"
	"fmt"
)

// Intent classifies what a query wants from the data.
type Intent string

const (
	IntentCount   Intent = "count"
	IntentList    Intent = "list"
	IntentFind    Intent = "find"
	IntentCompare Intent = "compare"
	IntentAnalyze Intent = "analyze"
)

func (i Intent) valid() bool {
	switch i {
	case IntentCount, IntentList, IntentFind, IntentCompare, IntentAnalyze:
		return true
	}
	return false
}

// Understanding is the structured reading of a user query: what kind of
// answer is wanted, which entities it concerns and any time period.
type Understanding struct {
	Intent    Intent   `json:"intent"`
	Entities  []string `json:"entities"`
	Timeframe string   `json:"timeframe,omitempty"`
}

// fallbackUnderstanding is the safe default when extraction fails for any
// reason. Understanding only shapes the answer narration, so degrading is
// always preferable to failing the request.
func fallbackUnderstanding() Understanding {
	return Understanding{Intent: IntentFind, Entities: []string{}}
}

const understandPromptFmt = `Analyze this query and extract key information:

Query: %q

Return a JSON object with exactly these fields:
{
  "intent": one of "count", "list", "find", "compare", "analyze",
  "entities": ["main entities mentioned, like customer names or job types"],
  "timeframe": "time period if mentioned (today, this week, last month, ...)"
}

Return ONLY the JSON object, no markdown.`

// understand asks the oracle for a structured reading of the query. Oracle
// failure, malformed JSON and missing fields all fall back silently.
func (a *Assistant) understand(ctx context.Context, query string) Understanding {
	raw, err := a.oracle.Complete(ctx, fmt.Sprintf(understandPromptFmt, query))
	if err != nil {
		a.logger.Debug("query understanding failed, using fallback", "error", err)
		return fallbackUnderstanding()
	}

	var u Understanding
	if err := json.Unmarshal([]byte(fenceRE.ReplaceAllString(raw, "")), &u); err != nil {
		a.logger.Debug("query understanding returned malformed JSON, using fallback", "error", err)
		return fallbackUnderstanding()
	}
	if !u.Intent.valid() {
		return fallbackUnderstanding()
	}
	if u.Entities == nil {
		u.Entities = []string{}
	}
	return u
}
