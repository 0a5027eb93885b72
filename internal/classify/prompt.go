package classify

import (
	"fmt"
	"strings"
	"time"

	"myfocus/internal/config"
	"myfocus/internal/model"
)

// maxOCRChars caps the screen text embedded in the prompt. OCR output
// itself is not length-limited; only the prompt is.
const maxOCRChars = 1000

// buildPrompt assembles the analysis prompt from the current task,
// the app rules, the foreground activity and truncated screen text.
// The reply format and judging criteria are spelled out so the parser
// has a status line to find.
func buildPrompt(cfg config.MonitoringConfig, activity model.Activity, ocrText, currentTask string, now time.Time) string {
	var b strings.Builder

	b.WriteString("请分析用户当前的专注状态和任务执行情况。\n\n")

	if currentTask != "" {
		fmt.Fprintf(&b, "**当前用户任务**: %s\n\n", currentTask)
	} else {
		b.WriteString("**当前用户任务**: 无明确任务设定\n\n")
	}

	if len(cfg.Whitelist) > 0 || len(cfg.Blacklist) > 0 {
		b.WriteString("**应用使用规则**:\n")
		if len(cfg.Whitelist) > 0 {
			b.WriteString("白名单应用（通常有助于专注）: ")
			b.WriteString(strings.Join(cfg.Whitelist, ", "))
			b.WriteString("\n")
		}
		if len(cfg.Blacklist) > 0 {
			b.WriteString("黑名单应用（通常导致分心）: ")
			b.WriteString(strings.Join(cfg.Blacklist, ", "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	app := activity.ApplicationName
	if app == "" {
		app = "未知应用"
	}
	title := activity.WindowTitle
	if title == "" {
		title = "无标题"
	}
	text := truncateRunes(ocrText, maxOCRChars)
	if text == "" {
		text = "无文本内容"
	}

	b.WriteString("**当前活动信息**:\n")
	fmt.Fprintf(&b, "- 应用程序: %s\n", app)
	fmt.Fprintf(&b, "- 窗口标题: %s\n", title)
	fmt.Fprintf(&b, "- 屏幕内容: %s\n", text)
	fmt.Fprintf(&b, "当前时间: %s\n\n", now.Format("2006-01-02 15:04:05"))

	b.WriteString("请根据以上信息判断用户当前的专注状态，并按以下格式回答：\n\n")
	b.WriteString("状态: [专注/分心/严重分心]\n")
	b.WriteString("分析: [详细说明判断理由]\n\n")

	b.WriteString("判断标准：\n")
	if currentTask != "" {
		b.WriteString("- 专注：当前活动与设定任务相关，或使用有助于任务完成的工具\n")
		b.WriteString("- 分心：当前活动与设定任务无关，但不影响长期目标\n")
		b.WriteString("- 严重分心：长时间从事与任务完全无关的活动，可能影响工作效率\n")
	} else {
		b.WriteString("- 专注：使用白名单中的应用，或从事提升个人能力的活动\n")
		b.WriteString("- 分心：使用黑名单中的应用，或从事娱乐休闲活动\n")
		b.WriteString("- 严重分心：长时间沉迷娱乐，可能影响个人发展\n")
	}

	return b.String()
}

// truncateRunes caps s at n runes, appending an ellipsis when cut.
// Rune-based so multi-byte text is never split mid-character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
