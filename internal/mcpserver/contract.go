package mcpserver

// CanonicalFormat describes the tagged transcript produced by the cleaner
// and consumed by the round parser.
const CanonicalFormat = `# roundup Canonical Transcript Format

Every cleaned chat log is stored as canonical text that the round parser reads
line by line.

## Structure

` + "```" + `text
<user>
What the player wrote.
</user>
<dungeon_master>
What the game master answered.
</dungeon_master>
` + "```" + `

## Rules

1. The text **starts** with ` + "`<user>`" + ` and **ends** with ` + "`</dungeon_master>`" + `.
2. A round opens on a line containing ` + "`<user>`" + `, switches to the answer on a line
   containing both ` + "`</user>`" + ` and ` + "`<dungeon_master>`" + ` (a ` + "`</user>`" + ` line directly
   followed by a ` + "`<dungeon_master>`" + ` line counts as one line), and closes on a line
   containing ` + "`</dungeon_master>`" + `.
3. A ` + "`<user>`" + ` line inside an open round restarts the round at that line.
4. A round left open at the end of the text is dropped.
5. There are never three or more consecutive newlines.
6. Line numbers are 0-based and inclusive; rounds are numbered from 1 in order.

## Cleaning

Raw exports are cleaned by replacing every line that starts with the user marker
(default ` + "`You said:`" + `) with ` + "`<user>`" + ` and every line that starts with the assistant
marker (default ` + "`ChatGPT said:`" + `) with ` + "`</user>`" + ` plus ` + "`<dungeon_master>`" + ` on the next line.
Cleaning is idempotent.

## Example

` + "```" + `text
You said:
Hello
ChatGPT said:
Hi there
` + "```" + `

cleans to

` + "```" + `text
<user>
Hello
</user>
<dungeon_master>
Hi there
</dungeon_master>
` + "```" + `

which parses into round 1 spanning lines 0-4.
`
