package mcpserver

// LogEntryFormat describes log entry fields for LLM consumers that add or
// edit entries.
const LogEntryFormat = `# sislog Log Entry Format

A log entry records one event on set during a live production.

## Fields

| Field           | Type          | Notes                                                  |
|-----------------|---------------|--------------------------------------------------------|
| id              | string        | Assigned by the store. Never supply it.                |
| timestamp       | RFC 3339 time | Wall-clock time of the event. Defaults to now.         |
| timecode        | HH:MM:SS:FF   | 30 frames per second, FF is 00-29. Defaults to the running clock. |
| participants    | list of ids   | Participant ids, e.g. p1, p2.                          |
| location        | id            | Location id, e.g. l1.                                  |
| actionCategory  | id            | Action category id, e.g. a2.                           |
| tags            | list of ids   | Tag ids, e.g. t1.                                      |
| notes           | string        | REQUIRED and not blank. Surrounding spaces are removed. |
| createdBy       | string        | Assigned from the operator running the server.         |
| createdAt       | RFC 3339 time | Assigned by the store.                                 |

## Rules

1. Ids are not checked against the reference collections. An unknown
   location or action category reads as "Unknown"; unknown participants
   and tags are left out, and an empty list reads as "None".
2. New and edited entries show up in list_log_entries once the store has
   synchronised, usually within a few milliseconds.
3. Timecodes must match HH:MM:SS:FF: two digits per field, except that
   hours may have more past 99. Minutes and seconds are below 60, frames
   below 30. Hours may exceed 23.
4. Deleting an entry that does not exist succeeds.

## Example

` + "```" + `json
{
  "timecode": "01:12:45:10",
  "participants": ["p1", "p3"],
  "location": "l2",
  "actionCategory": "a2",
  "tags": ["t1"],
  "notes": "Argument over the last coffee"
}
` + "```" + `
`
