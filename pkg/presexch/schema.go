/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Presentation Definition",
  "type": "object",
  "required": ["presentation_definition"],
  "properties": {
    "presentation_definition": {
      "type": "object",
      "required": ["id", "input_descriptors"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "purpose": {"type": "string"},
        "format": {"$ref": "#/definitions/format"},
        "input_descriptors": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/definitions/input_descriptor"}
        }
      }
    }
  },
  "definitions": {
    "format": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "jwt": {"$ref": "#/definitions/jwt_type"},
        "jwt_vc": {"$ref": "#/definitions/jwt_type"},
        "jwt_vp": {"$ref": "#/definitions/jwt_type"}
      }
    },
    "jwt_type": {
      "type": "object",
      "required": ["alg"],
      "additionalProperties": false,
      "properties": {
        "alg": {
          "type": "array",
          "minItems": 1,
          "items": {"type": "string"}
        }
      }
    },
    "input_descriptor": {
      "type": "object",
      "required": ["id"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "purpose": {"type": "string"},
        "constraints": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "limit_disclosure": {"type": "boolean"},
            "fields": {
              "type": "array",
              "items": {"$ref": "#/definitions/field"}
            }
          }
        }
      }
    },
    "field": {
      "type": "object",
      "required": ["path"],
      "additionalProperties": false,
      "properties": {
        "path": {
          "type": "array",
          "minItems": 1,
          "items": {"type": "string"}
        },
        "id": {"type": "string"},
        "purpose": {"type": "string"},
        "required": {"type": "boolean"},
        "filter": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "type": {"type": "string"},
            "pattern": {"type": "string"}
          }
        }
      }
    }
  }
}`
