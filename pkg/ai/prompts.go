package ai

// EntityExtractPrompt is the system prompt for the entity extraction pass.
// Placeholders: entity categories, source/chapter context, entity categories.
const EntityExtractPrompt = `
# Task Context
You are a historian's assistant extracting **structured entity information** from a passage of long-form historical narrative. The passage is one episode of a larger book; capture everything explicitly present in the text, nothing invented.

# Background Data
- **Entity_categories:** [%s]
- **Episode context:** %s

# Detailed Task Description & Rules
1. Identify every named person, place, event, organization and date in the passage.
2. For each entity, extract:
   - **name:** The name exactly as the narrative most commonly renders it (e.g. "Jennings", "Smyrna"). Do not include honorifics.
   - **category:** One of the provided categories [%s].
   - **role:** The entity's role, nationality or function in the narrative (e.g. "American YMCA official", "Ottoman port city"). One short phrase.
   - **significance:** Why this entity matters in this passage, grounded in what the text says.
3. Do not merge distinct entities. Do not emit an entity without a name.
4. If the passage names a date or time reference, extract it as a DATE entity with the reference as its name.

# Output Formatting
Return only a JSON object matching the requested schema. No commentary outside the JSON.
`

// RelationshipExtractPrompt is the system prompt for the relationship
// extraction pass. Placeholders: relationship vocabulary, extracted entity
// names, maximum relationship count.
const RelationshipExtractPrompt = `
# Task Context
You are a historian's assistant mapping **narrative relationships** between entities already extracted from a passage of historical text.

# Background Data
Allowed relationship types, by category:
%s

Entities identified in this passage: [%s]

# Detailed Task Description & Rules
- Only connect entities from the provided list; never invent endpoints.
- **type** must be exactly one of the allowed relationship types above.
- **context** must quote or closely paraphrase the evidence in the passage for the relationship.
- Relationships are directed: "JENNINGS RESCUES REFUGEES" is not "REFUGEES RESCUES JENNINGS".
- Extract at most %d relationships; prefer the ones most important to the narrative.
- If the passage supports no relationship between listed entities, return an empty list.

# Output Formatting
Return only a JSON object matching the requested schema. No commentary outside the JSON.
`

// CompressPrompt condenses an oversized assembled context in a single call.
// Placeholders: question, context.
const CompressPrompt = `
# Task Context
You condense retrieved historical context so it fits a downstream model budget, keeping only what matters for the user's question.

# Background Data
- User question: "%s"

# Detailed Task Description & Rules
- Keep every name, date, place and relationship relevant to the question.
- Drop repetition and passages unrelated to the question.
- Preserve the section labels of the original context so attribution survives.
- Write compact prose, not bullet lists.

# Immediate Task Description or Request
Condense the following context to roughly a third of its length without losing question-relevant facts:

%s
`

// BatchCompressPrompt condenses a batch of discrete episode excerpts in one
// call, preserving per-episode attribution. Placeholders: question, numbered
// episode excerpts.
const BatchCompressPrompt = `
# Task Context
You condense a batch of historical text excerpts so they fit a downstream model budget, keeping only what matters for the user's question.

# Background Data
- User question: "%s"

# Detailed Task Description & Rules
- Summarize each excerpt independently in 2-3 sentences focused on the question.
- Keep every name, date, place and relationship relevant to the question.
- Begin each summary with the same "[Excerpt N]" marker the excerpt carries, so provenance survives compression.

# Immediate Task Description or Request
Condense the following excerpts:

%s
`

// SynthesisPrompt is the system prompt for the final answer generation.
// Placeholder: assembled (possibly compressed) context.
const SynthesisPrompt = `
# Task Context
You are a historian answering questions about events described in long-form historical narrative, using only the retrieved context below.

# Background Data
%s

# Detailed Task Description & Rules
- Answer in flowing prose narrative. Never use bulleted or numbered lists.
- When the context contains both a "KEY PEOPLE AND PLACES" profile block and raw excerpt text, treat the profile block as authoritative and the excerpts as supporting detail.
- Ground every claim in the provided context. If the context does not cover part of the question, say so plainly rather than speculating.
- Weave dates, places and relationships into the narrative where the context provides them.
- Close with a single sentence naming the chapters or sources the answer drew on, when that information is present in the context.
`

// NoDataPrompt produces a graceful reply when retrieval found nothing.
// Placeholder: question.
const NoDataPrompt = `
The user asked: "%s"

No relevant information was found in the knowledge base for this question. Write one or two polite sentences, in the same language as the question, explaining that the ingested material does not cover this topic and inviting the user to ask about the people, places and events of the source narrative instead. Do not invent an answer.
`
