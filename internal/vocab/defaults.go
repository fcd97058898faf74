package vocab

// DefaultYAML is the vocabulary skeleton written by `tasksync init`. The
// personal and church sheets use a numbered priority encoding so they sort
// correctly as plain text; the work sheet uses bare labels.
const DefaultYAML = `version: 1
domains:
  personal:
    columns:
      title: "Task"
      priority: "Priority"
      status: "Status"
      planned: "Planned"
      target: "Target"
      deadline: "Hard Deadline"
      done: "Done"
      completed: "Completed On"
      link: "Task ID"
      modified: "Last Modified"
    priorities:
      urgent: "4-Urgent"
      high: "3-High"
      medium: "2-Medium"
      low: "1-Low"
      none: "0-None"
    statuses:
      not_started: "Not Started"
      in_progress: "In Progress"
      waiting: "Waiting"
      done: "Done"
  church:
    columns:
      title: "Task"
      priority: "Priority"
      status: "Status"
      planned: "Planned"
      target: "Target"
      deadline: "Hard Deadline"
      done: "Done"
      completed: "Completed On"
      link: "Task ID"
      modified: "Last Modified"
    priorities:
      urgent: "4-Urgent"
      high: "3-High"
      medium: "2-Medium"
      low: "1-Low"
      none: "0-None"
    statuses:
      not_started: "Not Started"
      in_progress: "In Progress"
      waiting: "Waiting"
      done: "Done"
  work:
    columns:
      title: "Task Name"
      priority: "Priority"
      status: "Status"
      planned: "Planned Date"
      target: "Target Date"
      deadline: "Deadline"
      done: "Complete"
      completed: "Completed"
      link: "Sync ID"
      modified: "Modified"
    priorities:
      urgent: "Urgent"
      high: "High"
      medium: "Medium"
      low: "Low"
      none: "None"
    statuses:
      not_started: "Not Started"
      in_progress: "In Progress"
      waiting: "Waiting"
      done: "Done"
`

// DefaultSet parses the built-in vocabulary. Panics only on a programming
// error in DefaultYAML, caught by tests.
func DefaultSet() *Set {
	set, err := Parse([]byte(DefaultYAML))
	if err != nil {
		panic("vocab: invalid DefaultYAML: " + err.Error())
	}
	return set
}
