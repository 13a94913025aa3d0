// Package config loads and watches the scorecard configuration file (config.yaml).
//
// Top-level types:
//   - Config{Server, Fetch, Sheets, Sections}: full config tree parsed from YAML
//   - Sheet: id, kind (csv|sheets), url or doc_id+gid, spreadsheet_id+range,
//     api_key_env, date_column
//   - Section: id, title, kind (metrics|series|table|performance), sheet, fields,
//     slice; Fields form the schema mapping table {name: (match, source)}
//   - AuthConfig: optional API key protection of the HTTP surface
//
// Load(path) reads the YAML file, applies defaults (port 8080, 10s fetch timeout,
// cache disabled), then validates ids, references and enums. Regex sources and
// duplicate field names are checked later, when the extract schema compiles.
//
// Watch(ctx, path, onChange) uses fsnotify on the parent directory so atomic
// saves (write temp file, rename over) are picked up.
package config
