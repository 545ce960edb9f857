package mcpserver

// PostFormatContract documents how a vault note becomes a Jekyll post, so
// LLM consumers can predict the output of preview_note and convert_vault.
const PostFormatContract = `# Post Format

Each note ` + "`" + `<vault>/**/<name>.md` + "`" + ` becomes ` + "`" + `<site>/_posts/<YYYY-MM-DD>-<slug>.md` + "`" + `.

## Output

` + "```" + `markdown
---
title: 출근 기록
date: 2025-03-19
categories:
  - 옵시디언
tags:
  - 3월
  - 출근
---

Body with [links](2025-03-19-다른-노트) rewritten.
` + "```" + `

## Rules

1. **title** comes from the note front matter, else the file name without ` + "`" + `.md` + "`" + `.
2. **date** comes from ` + "`" + `만든 날짜: 2025년 3월 19일 0시 57분` + "`" + `, else ` + "`" + `date` + "`" + `,
   else the time of the run. Only the calendar day is kept.
3. **slug** is the title with every character that is not a letter, digit,
   underscore or hyphen replaced by ` + "`" + `-` + "`" + `, runs of ` + "`" + `-` + "`" + ` collapsed.
4. **categories** come from the front matter, else the configured default.
5. **tags** merge front matter tags with body hashtags (` + "`" + `#출근` + "`" + `), sorted, deduplicated.
   Hashtags naming a date unit (년 월 일 시 분) are ignored.
6. **Links** outside fenced code blocks are rewritten:
   - ` + "`" + `[[Title]]` + "`" + ` becomes ` + "`" + `[Title](<slug of Title's post>)` + "`" + `
   - ` + "`" + `[[Shown|Title]]` + "`" + ` becomes ` + "`" + `[Shown](<slug of Title's post>)` + "`" + `
   - ` + "`" + `![[image.png]]` + "`" + ` becomes ` + "`" + `![image.png](image.png)` + "`" + `
   - unknown titles link to ` + "`" + `1970-01-01-<lowercased-title>` + "`" + `
7. Notes whose content hash is unchanged since the last run are skipped.
`
