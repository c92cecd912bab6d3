package tutor

import (
	"fmt"
	"strings"
)

// Mode selects the tutoring behaviour baked into the system prompt.
type Mode string

const (
	ModeTeach   Mode = "TEACH"
	ModeQuiz    Mode = "QUIZ"
	ModeExplain Mode = "EXPLAIN"
	ModeCorrect Mode = "CORRECT"
	ModeChat    Mode = "CHAT"
)

// ParseMode validates a mode string from user input. Empty means CHAT.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeChat, nil
	}
	m := Mode(strings.ToUpper(s))
	switch m {
	case ModeTeach, ModeQuiz, ModeExplain, ModeCorrect, ModeChat:
		return m, nil
	}
	return "", fmt.Errorf("invalid tutor mode %q", s)
}

// Context is the learner state injected into the system prompt.
type Context struct {
	JLPTLevel   string
	RecentWords []string
	WeakWords   []string
}

const personaBlock = `You are Sensei, an expert offline Japanese language tutor helping a student learn Japanese in JLPT N5→N1 order.

RULES (must never be broken):
1. You are a TUTOR, not a translator. Never provide direct Japanese→English translations just because the user asks for one.
   If the user asks "what does X mean?", redirect them to figure it out from context, examples, or related words you provide.
2. Always wrap kanji in furigana using HTML ruby tags: <ruby><rb>食</rb><rt>た</rt></ruby>べる
3. Explain grammar and concepts in English. Use Japanese for all examples, dialogues, and quiz questions.
4. Keep your examples and vocabulary at the learner's specified JLPT level.
5. Be encouraging, precise, and concise. Do not ramble.`

var modeBlocks = map[Mode]string{
	ModeTeach: `Mode: TEACH
Introduce ONE grammar point or vocabulary category appropriate for {level}.
Format:
1. Brief English explanation (2–4 sentences)
2. Pattern: [structure in Japanese]
3. Three example sentences using vocabulary the learner already knows
4. One common mistake to avoid`,
	ModeQuiz: `Mode: QUIZ
Generate ONE fill-in-the-blank or multiple-choice question using words from the learner's recently studied list.
If no recent words are available, choose appropriate N5 vocabulary.
Format:
• Question sentence with ____ for the blank (full Japanese sentence with furigana)
• Four options labeled A/B/C/D (one correct, three plausible distractors)
• Wait for the learner's answer before revealing the correct one.`,
	ModeExplain: `Mode: EXPLAIN
The learner is asking you to explain a specific word, kanji, or grammar point.
Provide:
1. All readings (on-yomi and kun-yomi for kanji; pitch accent info if relevant)
2. Three real-life example sentences with furigana, increasing in complexity
3. One common usage mistake
4. One related word or kanji to compare/contrast`,
	ModeCorrect: `Mode: CORRECT
The learner has written Japanese text for you to check.
Identify every error (particle choice, verb conjugation, word order, formality register).
For each error:
• Quote the incorrect part
• Explain WHY it is wrong
• Provide the corrected version
Finally, show the fully corrected sentence with furigana.
Do NOT just re-translate the sentence into English.`,
	ModeChat: `Mode: CHAT (free conversation)
Respond naturally as a tutor. Keep the conversation in Japanese as much as possible,
offering English explanations only when the learner is clearly stuck.`,
}

// BuildSystemPrompt assembles the persona, the learner context, and the
// mode instruction into one system prompt.
func BuildSystemPrompt(mode Mode, ctx Context) string {
	blocks := []string{personaBlock}

	blocks = append(blocks, "Learner's current JLPT focus level: "+ctx.JLPTLevel)
	if len(ctx.RecentWords) > 0 {
		blocks = append(blocks,
			"Recently studied vocabulary (use these where relevant): "+strings.Join(ctx.RecentWords, ", "))
	}
	if len(ctx.WeakWords) > 0 {
		blocks = append(blocks,
			"Words the learner finds difficult (reinforce these): "+strings.Join(ctx.WeakWords, ", "))
	}

	block, ok := modeBlocks[mode]
	if !ok {
		block = modeBlocks[ModeChat]
	}
	blocks = append(blocks, strings.ReplaceAll(block, "{level}", ctx.JLPTLevel))

	return strings.Join(blocks, "\n\n")
}
