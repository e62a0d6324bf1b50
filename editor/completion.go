package editor

// TODO(peter):
// - Tab completion
// - Add an option to specify a completion callback
// - Show list of completions
// - Show above the cursor? That potentially hides previous output
// - Indicate that the completions are truncated?
// - Printing completions above (ala bash) can show more completions (e.g. in
//   multiple columns)
//
// - As you type, show completion as dimmed.
// - When you delete, the deleted text shows as dimmed until a movement or
//   insertion overwrites it. Tab re-inserts the deleted text.
