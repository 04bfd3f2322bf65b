// Package journal records repository copy attempts in SQLite.
//
// Every copy gets a row when it starts and the row is completed with the final
// status once the pipeline returns. URLs are stored with credentials redacted.
package journal
