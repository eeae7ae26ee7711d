package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Snippet is one retrieved web result folded into a structuring prompt.
type Snippet struct {
	Title string
	Body  string
}

// FormatJSON asks Ollama for free-form JSON output.
var FormatJSON = json.RawMessage(`"json"`)

const roleSection = `<ROLE>
You are a smart recipe assistant. You turn dictated, unpunctuated recipe descriptions into clean structured recipe data.
</ROLE>`

const searchContextOpen = `<SEARCH_CONTEXT>
The dictation below may be too short to contain real ingredient data. The following web results describe the same dish.
You MUST use this context to fill in realistic ingredients, quantities and steps that the dictation leaves out.
`

const searchContextClose = `</SEARCH_CONTEXT>`

const structureInstructionsSection = `<INSTRUCTIONS>
1. Analyze the text to identify the recipe name, ingredients, steps and context.
2. Return ONLY a raw JSON object. Do NOT wrap it in markdown code fences. Do NOT add any conversational text before or after it.
3. Keep the order of ingredients and steps as the cook would follow them.
</INSTRUCTIONS>`

const keysSection = `<OUTPUT_FORMAT>
The JSON object must have exactly these keys:
- "title": the name of the recipe.
- "description": a short summary of the dish, focusing on its origin or backstory.
- "ingredients": a list of strings, each one an ingredient with its quantity.
- "steps": a list of strings, the sequential cooking instructions.
- "duration": the estimated total time, e.g. "45 minutes". Infer it if not stated.
- "origin": the cuisine or country of origin, e.g. "Italian". Infer it if not stated.
- "meal_type": the category of meal, e.g. "Dinner" or "Dessert". Infer it if not stated.
</OUTPUT_FORMAT>`

const metricSection = `<UNITS>
ALL quantities MUST use metric units: g or kg for weight, ml or l for volume, cm for length.
Convert cups, tablespoons, teaspoons, ounces and pounds (1 cup = 240 ml, 1 tbsp = 15 ml, 1 tsp = 5 ml, 1 oz = 28 g, 1 lb = 454 g).
Count-based items (eggs, cloves, slices) stay as counts.
ALL temperatures MUST be in degrees Celsius (°C). Convert Fahrenheit with (°F - 32) × 5/9.
</UNITS>`

const editRoleSection = `<ROLE>
You are a recipe editor. You modify an existing structured recipe according to a user instruction.
</ROLE>`

const editInstructionsSection = `<INSTRUCTIONS>
1. Apply the instruction to the recipe. Change only what the instruction implies and keep everything else as it is.
2. Return the FULL modified recipe as a single raw JSON object with the same keys: "title", "description", "ingredients", "steps", "duration", "origin", "meal_type".
3. "ingredients" and "steps" must be non-empty lists of strings.
4. Return ONLY the JSON object. No markdown code fences, no commentary.
</INSTRUCTIONS>`

// BuildStructurePrompt builds the prompt that turns dictated text into a
// recipe object. Search context, when present, comes before the
// instructions and the input text is embedded verbatim at the end.
func BuildStructurePrompt(text string, context []Snippet) string {
	var sb strings.Builder
	sb.WriteString(roleSection)
	sb.WriteString("\n\n")

	if len(context) > 0 {
		sb.WriteString(searchContextOpen)
		for i, s := range context {
			fmt.Fprintf(&sb, "\nResult %d: %s\n%s\n", i+1, s.Title, s.Body)
		}
		sb.WriteString(searchContextClose)
		sb.WriteString("\n\n")
	}

	sb.WriteString(structureInstructionsSection)
	sb.WriteString("\n\n")
	sb.WriteString(keysSection)
	sb.WriteString("\n\n")
	sb.WriteString(metricSection)
	sb.WriteString("\n\n")
	sb.WriteString("<RAW_TEXT>\n")
	sb.WriteString(text)
	sb.WriteString("\n</RAW_TEXT>")

	return sb.String()
}

// BuildEditPrompt embeds recipe as JSON followed by the user's instruction.
// Callers strip image payloads from recipe before calling.
func BuildEditPrompt(recipe any, instruction string) (string, error) {
	encoded, err := marshalNoEscape(recipe)
	if err != nil {
		return "", fmt.Errorf("encode recipe for prompt: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(editRoleSection)
	sb.WriteString("\n\n")
	sb.WriteString("<RECIPE>\n")
	sb.Write(encoded)
	sb.WriteString("\n</RECIPE>\n\n")
	sb.WriteString("<USER_INSTRUCTION>\n")
	sb.WriteString(instruction)
	sb.WriteString("\n</USER_INSTRUCTION>\n\n")
	sb.WriteString(editInstructionsSection)
	sb.WriteString("\n\n")
	sb.WriteString(metricSection)

	return sb.String(), nil
}

const recipeSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string"},
    "ingredients": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "steps": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "duration": {"type": "string"},
    "origin": {"type": "string"},
    "meal_type": {"type": "string"}
  },
  "required": ["title", "description", "ingredients", "steps", "duration", "origin", "meal_type"]
}`

// RecipeSchema is the JSON schema passed as Ollama's format constraint on
// edit calls.
func RecipeSchema() json.RawMessage {
	return json.RawMessage(recipeSchema)
}

// marshalNoEscape keeps <, > and & readable in the prompt.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
