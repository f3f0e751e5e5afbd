package mcpserver

// InterchangeFormat describes the CSV layout used by export_notes and
// import_notes, for LLM consumers producing or reading it.
const InterchangeFormat = `# Murmur Interchange Format

Exports and imports use a CSV file with a fixed header line.

## Structure

` + "```" + `
timestamp,title,content
"2025-03-04T05:06:07.890Z","Groceries","milk, eggs and bread"
"2025-03-04T05:07:00.000Z","Call Ana","about the weekend"
` + "```" + `

## Rules

1. **The first line is a header** and is skipped on import without being checked.
2. **One note per line.** Every field is wrapped in double quotes.
3. **timestamp** is an ISO-8601 UTC instant with millisecond precision
   (` + "`" + `YYYY-MM-DDTHH:MM:SS.sssZ` + "`" + `). It is kept as-is on import.
4. **title** must not contain a comma: the row is split on the first two commas,
   so everything after the second comma belongs to content.
5. **content** may contain commas and quotes but no line breaks.
6. **Rows with fewer than three non-empty fields are skipped** and counted in the
   import result. Blank lines are ignored.
7. Imported notes are appended; nothing is de-duplicated.

## Share links

A share link carries a draft as the ` + "`" + `note` + "`" + ` query parameter: standard
base64 of the JSON object ` + "`" + `{"title": "...", "content": "..."}` + "`" + `. Use the
encode_share_link and decode_share_link tools rather than building it by hand.
`
