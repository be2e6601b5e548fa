// Package watch provides file-watching for unitconv's live-reload workflow.
// It monitors individual files (such as a rate snapshot) through their parent
// directories, debounces rapid events, and invokes a callback with the path
// that changed.
package watch
