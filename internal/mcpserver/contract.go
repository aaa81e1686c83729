package mcpserver

// AuthoringContract describes the document format that agent-created pages
// must follow. It is served as the ansuz://authoring-contract resource and
// mirrors what the lint rules enforce.
const AuthoringContract = `# Ansuz Authoring Contract

Every Markdown document in this corpus MUST follow this structure. The
` + "`" + `check_doc` + "`" + ` tool verifies a document against these rules.

## Front matter

` + "```" + `markdown
---
title: Human-readable page title      # REQUIRED – shown in nav, listings, search
date: 2024-03-19                      # REQUIRED – YYYY-MM-DD or RFC 3339
summary: One-sentence description.    # REQUIRED – shown in listings and search
draft: true                           # OPTIONAL – drafts are hidden from listings and builds
tags:                                 # OPTIONAL – lowercase, kebab-case
  - go
  - graphql
images:                               # OPTIONAL – cover images, paths relative to static/
  - covers/workshop.svg
---

Body text in standard Markdown (GFM).
` + "```" + `

## Rules

1. **YAML front matter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + `, ` + "`" + `date` + "`" + `, and ` + "`" + `summary` + "`" + ` are required.** Everything else is optional.
3. **Internal links** are relative Markdown links that keep the ` + "`" + `.md` + "`" + ` extension:
   ` + "`" + `[Postgres setup](setting-up-postgres.md)` + "`" + `. Section anchors are allowed:
   ` + "`" + `[the schema](graphql-crud-workshop.md#the-schema)` + "`" + `. The target document
   must exist.
4. **Asset references** use absolute ` + "`" + `/static/` + "`" + ` paths:
   ` + "`" + `![flow](/static/diagrams/crud-flow.svg)` + "`" + `. The file must exist under the
   static directory.
5. **Code fences carry a language tag.** ` + "`" + `go` + "`" + `, ` + "`" + `graphql` + "`" + `, ` + "`" + `json` + "`" + `, and
   ` + "`" + `yaml` + "`" + ` fences are machine-checked: Go must be gofmt-parseable (a whole
   file, declarations, or statements), GraphQL must be a valid operation or
   SDL, JSON and YAML must decode.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. Encoding is UTF-8.

## Assets

- Upload via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + ` field
  ready to paste into the body.
- Uploads land flat at the static root; reference them as ` + "`" + `/static/<filename>` + "`" + `.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.

## Example

` + "```" + `markdown
---
title: Setting up Postgres for the workshop
date: 2024-03-12
summary: Install Postgres 16, create the workshop database, and load the schema.
tags:
  - postgres
  - setup
---

# Setting up Postgres for the workshop

Before the [main workshop](graphql-crud-workshop.md) you need a running
database.

![Schema overview](/static/diagrams/crud-flow.svg)
` + "```" + `
`
