// Package config loads the chatcore configuration.
//
// Configuration is merged from multiple sources in priority order:
//
//  1. Global config (~/.config/chatcore/, XDG compatible)
//  2. Project config (chatcore.json / .chatcore/chatcore.json)
//  3. CHATCORE_CONFIG file
//  4. CHATCORE_CONFIG_CONTENT inline JSON
//  5. Environment variables
//
// Both JSON and JSONC (JSON with comments) are accepted; .jsonc files
// are stripped with tidwall/jsonc before parsing. Config values may
// use {env:VAR_NAME} placeholders, which expand to environment
// variable values, and {file:path} placeholders, which expand to file
// contents escaped for JSON.
package config
