package mrc_http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

// Request parameter names. "az_treshold" keeps the historic spelling; the
// corrected "az_threshold" is accepted as an alias.
const (
	ParamQuestion     = "question"
	ParamDocuments    = "az_documents"
	ParamThreshold    = "az_treshold"
	ParamThresholdAlt = "az_threshold"
	ParamTokenize     = "az_tokenize"
	ParamRerankBudget = "bm_ndoc"
)

var knownParams = []string{
	ParamQuestion,
	ParamDocuments,
	ParamThreshold,
	ParamThresholdAlt,
	ParamTokenize,
	ParamRerankBudget,
}

// Defaults are applied for every parameter the request leaves out.
type Defaults struct {
	Documents    int
	Threshold    float64
	Tokenize     bool
	RerankBudget int
}

// Params is the parsed request configuration.
type Params struct {
	Question     string
	Documents    int
	Threshold    float64
	Tokenize     bool
	RerankBudget int
}

// maxBodyBytes caps the JSON body read for parameters.
const maxBodyBytes = 1 << 20

// ParseParams reads the request parameters. The query string is consulted
// first; when it carries none of the known parameters the JSON body is used.
// A body that is not a JSON object is ignored.
func ParseParams(r *http.Request, defaults Defaults) (Params, error) {
	values := queryValues(r)
	if len(values) == 0 {
		values = bodyValues(r)
	}
	return buildParams(values, defaults)
}

func queryValues(r *http.Request) map[string]string {
	query := r.URL.Query()
	values := make(map[string]string)
	for _, name := range knownParams {
		if query.Has(name) {
			values[name] = query.Get(name)
		}
	}
	return values
}

func bodyValues(r *http.Request) map[string]string {
	values := make(map[string]string)
	if r.Body == nil || r.Body == http.NoBody {
		return values
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		return values
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return values
	}
	for _, name := range knownParams {
		v, ok := body[name]
		if !ok || v == nil {
			continue
		}
		values[name] = stringify(v)
	}
	return values
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func buildParams(values map[string]string, defaults Defaults) (Params, error) {
	p := Params{
		Question:     strings.TrimSpace(values[ParamQuestion]),
		Documents:    defaults.Documents,
		Threshold:    defaults.Threshold,
		Tokenize:     defaults.Tokenize,
		RerankBudget: defaults.RerankBudget,
	}

	if raw, ok := values[ParamDocuments]; ok {
		n, err := positiveInt(ParamDocuments, raw)
		if err != nil {
			return Params{}, err
		}
		p.Documents = n
	}
	if raw, ok := values[ParamRerankBudget]; ok {
		n, err := positiveInt(ParamRerankBudget, raw)
		if err != nil {
			return Params{}, err
		}
		p.RerankBudget = n
	}

	rawThreshold, ok := values[ParamThreshold]
	name := ParamThreshold
	if !ok {
		rawThreshold, ok = values[ParamThresholdAlt]
		name = ParamThresholdAlt
	}
	if ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(rawThreshold), 64)
		if err != nil {
			return Params{}, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidParameter, name, rawThreshold)
		}
		p.Threshold = f
	}

	if raw, ok := values[ParamTokenize]; ok {
		p.Tokenize = !strings.EqualFold(strings.TrimSpace(raw), "false")
	}
	return p, nil
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidParameter, name, raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %s must be at least 1, got %d", domain.ErrInvalidParameter, name, n)
	}
	return n, nil
}
