package triage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/util"
)

const (
	maxPromptOutputChars = 4000
	maxPromptLogChars    = 8000
	analysisTimeout      = 20 * time.Second
	postMaxElapsed       = 30 * time.Second
)

const systemPrompt = `You are a senior network engineer specializing in data center ` +
	`fabrics (BGP, OSPF, EVPN-VXLAN, LLDP). You are triaging automated test failures.

Analyze the provided test failure output and device logs, then produce a ` +
	`structured JSON response with exactly these fields:

{
  "title": "One-line defect summary",
  "summary": "2-3 sentence description of what happened",
  "probable_root_cause": "Most likely technical root cause",
  "affected_components": ["list", "of", "affected", "subsystems"],
  "severity": "blocker|critical|high|medium|low",
  "recommended_actions": ["Step 1...", "Step 2...", "Step 3..."]
}

Be specific and technical. Reference actual protocol states, timer values, ` +
	`and configuration parameters when relevant.`

// Failure is one test failure handed to an analyzer.
type Failure struct {
	TestName    string            `json:"test_name"`
	ErrorOutput string            `json:"error_output"`
	DeviceLogs  string            `json:"device_logs,omitempty"`
	Device      string            `json:"device,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// Analyzer produces a defect report from one failure.
type Analyzer interface {
	AnalyzeFailure(failure Failure) (*DefectReport, error)
}

// HTTPAnalyzer posts failure prompts to an LLM completion endpoint and
// parses the structured JSON reply into a DefectReport. Transient HTTP
// failures retry with exponential backoff.
type HTTPAnalyzer struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	log      *logrus.Entry
}

// NewHTTPAnalyzer builds an analyzer against the given endpoint.
func NewHTTPAnalyzer(endpoint, apiKey, model string, log *logrus.Entry) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: analysisTimeout},
		log:      log,
	}
}

type analysisRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type analysisResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// AnalyzeFailure sends the failure to the analysis endpoint and parses the
// reply. When the reply is not the expected JSON shape, the raw text is kept
// as the summary rather than discarded.
func (a *HTTPAnalyzer) AnalyzeFailure(failure Failure) (*DefectReport, error) {
	if a.apiKey == "" {
		return nil, util.NewTriageError(failure.Device, "analysis API key not set")
	}
	if a.log != nil {
		a.log.Infof("Analyzing failure for test %q on %s", failure.TestName, failure.Device)
	}

	text, err := a.post(buildPrompt(failure))
	if err != nil {
		return nil, util.NewTriageError(failure.Device, "failure analysis failed").
			WithDetail("test_name", failure.TestName).WithCause(err)
	}

	report := parseResponse(text, failure)
	if a.log != nil {
		a.log.Infof("Triage complete: %s", report.Title)
	}
	return report, nil
}

// AnalyzeBatch analyzes failures one by one, logging and skipping those that
// cannot be analyzed.
func (a *HTTPAnalyzer) AnalyzeBatch(failures []Failure) []*DefectReport {
	reports := make([]*DefectReport, 0, len(failures))
	for _, failure := range failures {
		report, err := a.AnalyzeFailure(failure)
		if err != nil {
			if a.log != nil {
				a.log.Warnf("Skipping failure: %v", err)
			}
			continue
		}
		reports = append(reports, report)
	}
	return reports
}

func (a *HTTPAnalyzer) post(prompt string) (string, error) {
	reqBody := analysisRequest{
		Model:     a.model,
		MaxTokens: 1024,
		System:    systemPrompt,
	}
	reqBody.Messages = append(reqBody.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: "user", Content: prompt})

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	var text string
	op := func() error {
		req, err := http.NewRequest(http.MethodPost, a.endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", a.apiKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("bad status: %d", resp.StatusCode)
		}
		var decoded analysisResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return backoff.Permanent(err)
		}
		if len(decoded.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("empty analysis response"))
		}
		text = decoded.Content[0].Text
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = postMaxElapsed
	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}
	return text, nil
}

func buildPrompt(failure Failure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Test Failure: %s\n", failure.TestName)
	device := failure.Device
	if device == "" {
		device = "unknown"
	}
	fmt.Fprintf(&b, "**Device:** %s\n\n", device)
	fmt.Fprintf(&b, "### Error Output\n```\n%s\n```\n", truncate(failure.ErrorOutput, maxPromptOutputChars))

	if failure.DeviceLogs != "" {
		fmt.Fprintf(&b, "\n### Device Logs\n```\n%s\n```\n", truncate(failure.DeviceLogs, maxPromptLogChars))
	}
	if len(failure.Context) > 0 {
		ctx, _ := json.MarshalIndent(failure.Context, "", "  ")
		fmt.Fprintf(&b, "\n### Additional Context\n```json\n%s\n```\n", truncate(string(ctx), maxPromptLogChars))
	}
	b.WriteString("\nAnalyze this failure and respond with the JSON structure described in the system prompt.")
	return b.String()
}

// parseResponse decodes the model's JSON answer. Replies wrapped in Markdown
// code fences are unwrapped first; unparseable replies become a medium
// severity report carrying the raw text as summary.
func parseResponse(text string, failure Failure) *DefectReport {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	report := &DefectReport{
		Title:             fmt.Sprintf("Test failure: %s", failure.TestName),
		Summary:           trimmed,
		ProbableRootCause: "unknown",
		Severity:          SeverityMedium,
	}
	if err := json.Unmarshal([]byte(trimmed), report); err == nil && report.Severity == "" {
		report.Severity = SeverityMedium
	}

	report.TestName = failure.TestName
	report.Device = failure.Device
	report.ErrorOutput = failure.ErrorOutput
	report.DeviceLogs = failure.DeviceLogs
	report.Timestamp = time.Now().UTC()
	return report
}
