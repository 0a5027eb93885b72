// Package classify turns one sample of screen activity into a
// MonitoringResult. It builds the analysis prompt, calls the backend
// through the detection role, and parses the reply with a
// priority-ordered keyword matcher.
package classify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"myfocus/internal/ai"
	"myfocus/internal/config"
	"myfocus/internal/model"
)

// fallbackReply stands in for the backend reply when the call fails.
// It deliberately contains none of the parser's state keywords, so it
// always parses to Unknown at confidence 0.5 and a backend outage
// degrades classification instead of crashing the scheduler.
const fallbackReply = "状态: 未知\n分析: AI服务暂不可用，无法完成状态分析。请检查网络连接和API配置。"

// Classifier classifies activity samples.
type Classifier struct {
	analyzer ai.Analyzer
	log      *zap.SugaredLogger
}

// New creates a Classifier over the given backend.
func New(analyzer ai.Analyzer, log *zap.SugaredLogger) *Classifier {
	return &Classifier{
		analyzer: analyzer,
		log:      log.Named("classify"),
	}
}

// Classify produces the MonitoringResult for one sample. It never
// returns an error: backend failures degrade to Unknown.
func (c *Classifier) Classify(ctx context.Context, cfg config.MonitoringConfig, activity model.Activity, ocrText, currentTask string) model.MonitoringResult {
	prompt := buildPrompt(cfg, activity, ocrText, currentTask, time.Now())

	reply, err := c.analyzer.Analyze(ctx, prompt, ai.RoleDetection)
	if err != nil {
		c.log.Warnw("backend call failed, using fallback reply", "error", err)
		reply = fallbackReply
	}

	state, confidence := ParseResponse(reply)
	c.log.Infow("sample classified",
		"state", state, "confidence", confidence,
		"app", activity.ApplicationName)

	return model.MonitoringResult{
		Timestamp:       time.Now().UTC(),
		FocusState:      state,
		ApplicationName: activity.ApplicationName,
		WindowTitle:     activity.WindowTitle,
		OCRText:         ocrText,
		Analysis:        reply,
		Confidence:      confidence,
	}
}
