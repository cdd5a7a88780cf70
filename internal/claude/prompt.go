package claude

import (
	"fmt"
	"strings"

	"devdigest/internal/digest"
)

const noPendingRequestsText = "No pending requests."

const systemPrompt = "You are a personal development assistant that creates a daily digest for a software developer.\n" +
	"Analyze the developer's recent GitHub activity, answer their pending requests,\n" +
	"and provide actionable suggestions.\n" +
	"\n" +
	"## Output Format\n" +
	"\n" +
	"Respond with a single JSON code block (```json ... ```) containing exactly this structure:\n" +
	"\n" +
	"{\n" +
	"  \"digest_summary\": \"3-5 paragraph summary in Japanese of today's development situation and recommendations.\",\n" +
	"  \"learning\": [\n" +
	"    {\"title\": \"学習テーマ\", \"description\": \"1-2文の説明\", \"tags\": [\"tag1\", \"tag2\"]}\n" +
	"  ],\n" +
	"  \"news\": [\n" +
	"    {\"title\": \"ニュース見出し\", \"description\": \"1-2文の要約（ソースURL付き）\", \"tags\": [\"tag1\"]}\n" +
	"  ],\n" +
	"  \"action\": [\n" +
	"    {\"title\": \"アクション\", \"description\": \"具体的な内容\", \"priority\": \"High|Medium|Low\", \"tags\": [\"tag1\"]}\n" +
	"  ],\n" +
	"  \"idea\": [\n" +
	"    {\"title\": \"アイデア\", \"description\": \"概要と価値\", \"tags\": [\"tag1\"]}\n" +
	"  ],\n" +
	"  \"request_answers\": [\n" +
	"    {\"request_id\": \"page-id\", \"answer_summary\": \"回答の要約\"}\n" +
	"  ]\n" +
	"}\n" +
	"\n" +
	"## Constraints\n" +
	"\n" +
	"- learning: exactly 3 items. Directly relevant to the developer's current projects.\n" +
	"- news: exactly 3 items. Use web search to find real, current tech news. Include actual URLs. Do NOT fabricate.\n" +
	"- action: 3 to 5 items. Each must have a priority. Concrete and achievable today.\n" +
	"- idea: 1 to 2 items.\n" +
	"- request_answers: one entry per pending request. Empty array if no requests.\n" +
	"- All text content in Japanese. Tags in lowercase English.\n" +
	"\n" +
	"## Rating Feedback\n" +
	"\n" +
	"The developer rates past suggestions (★1-5).\n" +
	"- Increase suggestions similar to ★4-5 items.\n" +
	"- Decrease or avoid suggestions similar to ★1-2 items.\n" +
	"\n" +
	"## Web Search\n" +
	"\n" +
	"Use web search to find:\n" +
	"1. Real, current tech news relevant to the developer's activity.\n" +
	"2. Information to answer pending requests.\n"

// BuildUserMessage assembles the single user turn from the three inputs.
// activityLabel names the activity sources in the first heading.
func BuildUserMessage(activityLabel, activityText string, requests []digest.Request, feedback string) string {
	parts := []string{fmt.Sprintf("## Today's %s Activity\n%s", activityLabel, activityText)}

	if len(requests) == 0 {
		parts = append(parts, "## Pending Requests\n"+noPendingRequestsText)
	} else {
		lines := make([]string, 0, len(requests))
		for _, r := range requests {
			lines = append(lines, fmt.Sprintf("- [%s] (id: %s)", r.Title, r.ID))
		}
		parts = append(parts, "## Pending Requests\n"+strings.Join(lines, "\n"))
	}

	parts = append(parts, "## Rating Feedback\n"+feedback)
	return strings.Join(parts, "\n\n")
}
