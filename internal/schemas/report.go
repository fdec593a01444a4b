package schemas

// ReportSchema describes the JSON run report written by `version_audit run --report`.
const ReportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Version audit run report",
  "type": "object",
  "required": ["run_id", "source_url", "started_at", "finished_at", "requirements", "sessions", "users", "mismatches", "notifications"],
  "properties": {
    "run_id": {"type": "string", "format": "uuid"},
    "source_url": {"type": "string", "minLength": 1},
    "started_at": {"type": "string", "format": "date-time"},
    "finished_at": {"type": "string", "format": "date-time"},
    "dry_run": {"type": "boolean"},
    "requirements": {"type": "integer", "minimum": 0},
    "sessions": {"type": "integer", "minimum": 0},
    "unique_sessions": {"type": "integer", "minimum": 0},
    "users": {"type": "integer", "minimum": 0},
    "mismatches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["join_key", "client_identifier", "user_name", "email", "observed_version", "recommended_version"],
        "properties": {
          "join_key": {"type": "string"},
          "client_identifier": {"type": "string"},
          "user_name": {"type": "string"},
          "email": {"type": ["string", "null"]},
          "observed_version": {"type": "string"},
          "recommended_version": {"type": "string"}
        }
      }
    },
    "notifications": {
      "type": "object",
      "required": ["sent", "skipped", "failures"],
      "properties": {
        "sent": {"type": "array", "items": {"type": "string"}},
        "skipped": {"type": "integer", "minimum": 0},
        "failures": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["recipient", "error"],
            "properties": {
              "recipient": {"type": "string"},
              "user_name": {"type": "string"},
              "error": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`
