package parser

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// storySchema は絵本本文の構造です。ページ数は固定なのだ。
var storySchema = fmt.Sprintf(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["pages"],
  "properties": {
    "pages": {
      "type": "array",
      "minItems": %[1]d,
      "maxItems": %[1]d,
      "items": {
        "type": "object",
        "required": ["idx", "right_text_ja", "left_image_desc"],
        "properties": {
          "idx": {"type": "integer"},
          "right_text_ja": {"type": "string"},
          "left_image_desc": {"type": "string"}
        }
      }
    }
  }
}`, domain.PageCount)

var compiledStorySchema = jsonschema.MustCompileString("story.json", storySchema)
