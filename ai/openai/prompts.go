package openai

const metadataResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "topics": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z]+( [a-z]+)*$"}
    },
    "entities": {
      "type": "array",
      "items": {"type": "string"}
    },
    "tags": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9-]+$"}
    }
  },
  "required": ["topics", "entities", "tags"],
  "additionalProperties": false
}`

const metadataPromptTemplate = `Extract structured metadata from the given social media document and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Topics are broad subjects the document discusses: lowercase, 1-3 words each, at most 5.
- Entities are named things mentioned in the document: people, places, products, organizations. Keep original casing.
- Tags are short kebab-case labels suitable for filtering, at most 5.
- Include only what is explicitly mentioned or clearly implied. Do not hallucinate.
- If nothing can be identified for a field, return an empty array for it.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Best taqueria in the Mission? La Taqueria's carnitas burrito is unbeatable imo"
Output:
{
  "topics": ["food", "restaurant recommendation"],
  "entities": ["La Taqueria", "Mission"],
  "tags": ["food", "burritos", "san-francisco"]
}

Example (informal, no punctuation):
Input: "anyone else seeing muni delays on the n judah this morning"
Output:
{
  "topics": ["public transit", "commute"],
  "entities": ["Muni", "N Judah"],
  "tags": ["transit", "delays"]
}`

const intentResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "intent": {"type": "string"},
    "entities": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    },
    "topics": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z]+( [a-z]+)*$"}
    }
  },
  "required": ["intent", "entities", "topics"],
  "additionalProperties": false
}`

const intentPromptTemplate = `Analyze the given search query and return its intent as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Intent is a one-line restatement of what the user is looking for.
- Entities maps a category to the raw strings found in the query. Use lowercase category names
  such as "location", "person", "product", "organization". Keep the raw query spelling in the values.
- Topics are the query's broad subjects: lowercase, 1-3 words each, at most 5.
- If nothing fits a field, return an empty object or array for it.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "good coffee shops near dolores park sf"
Output:
{
  "intent": "find coffee shop recommendations near Dolores Park in San Francisco",
  "entities": {"location": ["dolores park", "sf"]},
  "topics": ["coffee", "recommendations"]
}

Example (no entities):
Input: "how do people feel about remote work"
Output:
{
  "intent": "find opinions about remote work",
  "entities": {},
  "topics": ["remote work", "opinion"]
}`

const answerPromptTemplate = `You are a research assistant summarizing social media discussions.

Answer the user's question using ONLY the documents provided below. Cite nothing outside them.
If the documents do not contain enough information to answer, say so plainly.
Keep the answer concise: a few short paragraphs at most. Write in plain prose, no markdown headers.

Documents:

%s`
