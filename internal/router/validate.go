// internal/router/validate.go
package router

import (
	"encoding/json"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/pagekit"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// pageArgs is the fully validated union of every page action's arguments.
// Only the fields relevant to the request's kind are populated.
type pageArgs struct {
	point      schemas.GridCoordinate
	dest       schemas.GridCoordinate
	text       string
	pressEnter bool
	clearFirst bool
	chord      schemas.KeyChord
	direction  schemas.Direction
	magnitude  int64
}

// decodeArgs unmarshals the raw argument payload strictly enough that
// unparseable JSON is a validation failure, not a dispatch failure.
func decodeArgs(req schemas.ActionRequest, dst interface{}) error {
	if len(req.Args) == 0 {
		return schemas.NewValidationError(req.Name, "missing arguments")
	}
	if err := jsonAPI.Unmarshal(req.Args, dst); err != nil {
		return schemas.NewValidationError(req.Name, "malformed arguments: %v", err)
	}
	return nil
}

// coordinate converts a pair of raw JSON numbers into an in-range grid
// coordinate. Float literals are rejected outright: 12.5 is an invalid
// coordinate, not 12 or 13.
func coordinate(action schemas.ActionKind, x, y json.Number) (schemas.GridCoordinate, error) {
	if x == "" || y == "" {
		return schemas.GridCoordinate{}, schemas.NewValidationError(action, "missing coordinate")
	}
	xi, err := x.Int64()
	if err != nil {
		return schemas.GridCoordinate{}, schemas.NewValidationError(action, "coordinate x=%s is not an integer", x)
	}
	yi, err := y.Int64()
	if err != nil {
		return schemas.GridCoordinate{}, schemas.NewValidationError(action, "coordinate y=%s is not an integer", y)
	}
	c := schemas.GridCoordinate{X: xi, Y: yi}
	if !c.InRange() {
		return schemas.GridCoordinate{}, schemas.NewValidationError(action, "coordinate (%d, %d) outside [0, %d]", xi, yi, schemas.GridMax)
	}
	return c, nil
}

// parsePageArgs validates the arguments for every page action kind.
func parsePageArgs(req schemas.ActionRequest) (pageArgs, error) {
	var out pageArgs

	switch req.Name {
	case schemas.ActionClickAt, schemas.ActionHoverAt:
		var a schemas.PointArgs
		if err := decodeArgs(req, &a); err != nil {
			return out, err
		}
		c, err := coordinate(req.Name, a.X, a.Y)
		if err != nil {
			return out, err
		}
		out.point = c
		return out, nil

	case schemas.ActionTypeTextAt:
		var a schemas.TypeTextArgs
		if err := decodeArgs(req, &a); err != nil {
			return out, err
		}
		c, err := coordinate(req.Name, a.X, a.Y)
		if err != nil {
			return out, err
		}
		if a.Text == nil {
			return out, schemas.NewValidationError(req.Name, "missing text")
		}
		out.point = c
		out.text = *a.Text
		out.pressEnter = a.PressEnter == nil || *a.PressEnter
		out.clearFirst = a.ClearBeforeTyping == nil || *a.ClearBeforeTyping
		return out, nil

	case schemas.ActionKeyCombination:
		var a schemas.KeyCombinationArgs
		if err := decodeArgs(req, &a); err != nil {
			return out, err
		}
		if a.Keys == nil || strings.TrimSpace(*a.Keys) == "" {
			return out, schemas.NewValidationError(req.Name, "missing keys")
		}
		chord, err := pagekit.ParseCombination(*a.Keys)
		if err != nil {
			return out, schemas.NewValidationError(req.Name, "%v", err)
		}
		out.chord = chord
		return out, nil

	case schemas.ActionScrollDocument:
		var a schemas.ScrollDocumentArgs
		if err := decodeArgs(req, &a); err != nil {
			return out, err
		}
		dir, err := schemas.ParseDirection(a.Direction)
		if err != nil {
			return out, schemas.NewValidationError(req.Name, "%v", err)
		}
		out.direction = dir
		return out, nil

	case schemas.ActionScrollAt:
		var a schemas.ScrollAtArgs
		if err := decodeArgs(req, &a); err != nil {
			return out, err
		}
		c, err := coordinate(req.Name, a.X, a.Y)
		if err != nil {
			return out, err
		}
		dir, err := schemas.ParseDirection(a.Direction)
		if err != nil {
			return out, schemas.NewValidationError(req.Name, "%v", err)
		}
		mag := int64(schemas.DefaultScrollMagnitude)
		if a.Magnitude != nil {
			m, err := a.Magnitude.Int64()
			if err != nil {
				return out, schemas.NewValidationError(req.Name, "magnitude %s is not an integer", *a.Magnitude)
			}
			// Magnitude shares the grid's value range.
			if m < 0 {
				m = 0
			}
			if m > schemas.GridMax {
				m = schemas.GridMax
			}
			mag = m
		}
		out.point = c
		out.direction = dir
		out.magnitude = mag
		return out, nil

	case schemas.ActionDragAndDrop:
		var a schemas.DragAndDropArgs
		if err := decodeArgs(req, &a); err != nil {
			return out, err
		}
		src, err := coordinate(req.Name, a.X, a.Y)
		if err != nil {
			return out, err
		}
		dst, err := coordinate(req.Name, a.DestinationX, a.DestinationY)
		if err != nil {
			return out, err
		}
		out.point = src
		out.dest = dst
		return out, nil
	}

	return out, schemas.NewValidationError(req.Name, "not a page action")
}

// parseNavigateArgs validates and normalizes the navigate target.
func parseNavigateArgs(req schemas.ActionRequest) (string, error) {
	var a schemas.NavigateArgs
	if err := decodeArgs(req, &a); err != nil {
		return "", err
	}
	if a.URL == nil || strings.TrimSpace(*a.URL) == "" {
		return "", schemas.NewValidationError(req.Name, "missing url")
	}
	return NormalizeURL(*a.URL), nil
}

// parseAskArgs validates the oracle passthrough prompt.
func parseAskArgs(req schemas.ActionRequest) (string, error) {
	var a schemas.AskOracleArgs
	if err := decodeArgs(req, &a); err != nil {
		return "", err
	}
	if a.Prompt == nil || strings.TrimSpace(*a.Prompt) == "" {
		return "", schemas.NewValidationError(req.Name, "missing prompt")
	}
	return *a.Prompt, nil
}

// NormalizeURL turns whatever the oracle produced into an absolute address.
// Well-formed http(s) URLs and navigable non-web schemes (about:, file:)
// pass through unchanged; anything else is stripped of leading slashes and
// prefixed with https://. The scheme allowlist is deliberate: a bare
// host:port like "localhost:8080" parses with scheme "localhost" and must
// take the rewrite path, not the pass-through.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if u, err := url.Parse(trimmed); err == nil {
		switch u.Scheme {
		case "http", "https":
			if u.Host != "" {
				return trimmed
			}
		case "about", "file":
			return trimmed
		}
	}
	return "https://" + strings.TrimLeft(trimmed, "/")
}
