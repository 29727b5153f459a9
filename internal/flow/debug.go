package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

// attachDebug enriches a checkpoint result with the diagnostic context an
// operator needs when the flow misbehaves: content pattern analysis, cookie
// inventory, and the tail of relevant pod logs. Capture failures degrade to
// diagnostic strings; they never change the verdict.
func (o *Options) attachDebug(ctx context.Context, res *model.CheckpointResult) {
	if res.Details == nil {
		res.Details = make(map[string]string)
	}

	res.Details["page_title"] = res.Snapshot.Title
	res.Details["page_source_length"] = strconv.Itoa(res.Snapshot.Length)
	res.Details["cookie_count"] = strconv.Itoa(len(res.Snapshot.Cookies))

	for label, group := range patternSummary() {
		res.Details["pattern_"+label] = strconv.FormatBool(group.Match(res.Snapshot.Content))
	}

	if lines := matcher.ExtractLines(res.Snapshot.Content, matcher.ErrorLine, 5, 200); len(lines) > 0 {
		res.Details["important_content"] = strings.Join(lines, "\n")
	}

	if o.Logs != nil && len(o.PodSources) > 0 {
		logs := o.Logs.Fetch(ctx, o.PodSources)
		for name, text := range logs {
			res.Details["podlog_"+name] = text
		}
	}

	o.Logger.Debug("flow: checkpoint evaluated",
		"checkpoint", res.Name,
		"passed", res.Passed,
		"url", res.Snapshot.URL,
		"message", res.Message)
}

// CollectPodLogs runs a standalone capture, used for the report's final
// pod-log section.
func CollectPodLogs(ctx context.Context, opts Options) map[string]string {
	if opts.Logs == nil || len(opts.PodSources) == 0 {
		return nil
	}
	return opts.Logs.Fetch(ctx, opts.PodSources)
}

// DescribeResult renders a one-line summary for logging.
func DescribeResult(res model.CheckpointResult) string {
	status := "FAIL"
	if res.Passed {
		status = "PASS"
	}
	return fmt.Sprintf("%s %s: %s", status, res.Name, res.Message)
}
