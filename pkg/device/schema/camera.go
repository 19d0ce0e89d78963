package schema

import "encoding/json"

// CameraCreateSchema describes the body of a camera registration.
var CameraCreateSchema = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["url"],
	"properties": {
		"name": {"type": "string", "maxLength": 128},
		"url": {"type": "string", "pattern": "^https?://"},
		"username": {"type": "string"},
		"password": {"type": "string"},
		"auth_mode": {"type": "string", "enum": ["none", "basic", "digest"]},
		"verify_ssl": {"type": "boolean"},
		"poll_interval_seconds": {"type": "integer", "minimum": 1, "maximum": 3600}
	},
	"additionalProperties": false
}`)

// CameraUpdateSchema describes the body of a camera patch.
var CameraUpdateSchema = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 128}
	},
	"additionalProperties": false
}`)
