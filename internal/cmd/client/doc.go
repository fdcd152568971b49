// Package client provides the `logbook` command-line client.
//
// The CLI talks to the HTTP API of a running `logbook server start` to
// manage log types, commit logs and browse them from a terminal.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. The standalone binary reads LOGBOOK_URL and
// defaults to http://127.0.0.1:8787.
//
// Usage
//
//	logbook logtype create --name "Coffee"
//	logbook logtype list --archived
//	logbook logtype edit TYPE_ID --name "Morning coffee" --color green
//	logbook logtype edit TYPE_ID --patch '{"icon":"./Map/cup.svg"}'
//	logbook logtype revisions TYPE_ID
//	logbook logtype diff TYPE_ID --from TYPE_ID:1
//
//	logbook placeholder add TYPE_ID --kind select --name place
//	logbook placeholder update TYPE_ID PID --option home --option office
//	logbook placeholder move TYPE_ID PID --index 0
//
//	# values are keyed by placeholder id or name
//	logbook log add TYPE_ID --value place=home --value coffee=latte
//	logbook log add TYPE_ID --quick
//	logbook log list --contain latte --from 2024-01-01 --where 'create_ms > 0'
//	logbook log sections --type TYPE_ID
//	logbook log history PID
//
//	logbook dev seed
//	logbook dev generate --count 50 --days 30
//	logbook dev clear --confirm
//
// Notes
//
//   - Log type colors are rendered when stdout is a terminal and NO_COLOR
//     is unset.
//   - Every listing accepts --json for machine readable output.
package client
