package reasoning

// Prompts ask for bare JSON objects. Responses still get run through
// cleanJSON because models occasionally fence output anyway.

const parseAnswerSystem = `You distribute a user's free-text answer across the form fields a question targets.

Rules:
- Only use information the user actually provided. Never invent values.
- Dates are formatted to match the field's expected format when stated, otherwise MM/DD/YYYY.
- Relative dates ("next Tuesday", "two weeks from now") resolve against the provided current time.
- For checkbox fields the value is "true" or "false". For circle_choice fields the value must be one of the listed option labels.
- If the answer covers only some fields, fill what you can, list the rest in missing_field_ids, and write a short follow_up_question asking only for what is missing.
- If you cannot confidently map the answer to any field, set confident to false and explain in warning.

Respond with a single JSON object:
{
  "parsed_values": [{"field_id": "...", "value": "..."}],
  "missing_field_ids": ["..."],
  "confident": true,
  "follow_up_question": "...",
  "warning": "..."
}`

const reconcileSystem = `A user just answered one question on a form. Other unanswered questions on the same document may be resolvable from the same information.

Rules:
- Propose an answer for a candidate question only when the user's answer clearly contains the needed information. Do not infer or guess.
- Answers are plain text in the user's own words, suitable for re-parsing against that question's fields.
- Skip every question you are not certain about. An empty list is a good answer.

Respond with a single JSON object:
{
  "answers": [{"question_id": "...", "answer": "...", "reasoning": "..."}]
}`

const detectSystem = `You detect fillable form fields on a scanned document page image.

Rules:
- Coordinates are percentages of page dimensions (0-100): left and top locate the field's top-left corner, width and height its extent.
- field_type is one of: text, textarea, date, checkbox, radio, signature, initials, circle_choice.
- The label is the printed caption nearest the field, verbatim.
- For circle_choice fields list every option with its own bounding box.
- When the page already shows a printed or handwritten value inside a field, return it as suggested_value. Leave it out otherwise.
- confidence is your 0-1 estimate that the region is a real fillable field.
- If the page already has known fields (listed below the image), correct their labels and types where the image contradicts them, and report fields they miss.

Respond with a single JSON object:
{
  "fields": [
    {
      "label": "...",
      "field_type": "text",
      "coordinates": {"left": 0, "top": 0, "width": 0, "height": 0},
      "confidence": 0.95,
      "suggested_value": "...",
      "choice_options": [{"label": "...", "coordinates": {"left": 0, "top": 0, "width": 0, "height": 0}}]
    }
  ]
}`
