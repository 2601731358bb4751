package v1

import (
	"fmt"
	"math"

	"github.com/nhudang/user-aggregator/internal/core/domain"
)

// Required keys, checked in this exact order. Validation reports the first
// missing key only.
var (
	userRequiredFields    = []string{"id", "name", "username", "email", "address", "phone", "website", "company"}
	addressRequiredFields = []string{"street", "suite", "city", "zipcode", "geo"}
	companyRequiredFields = []string{"name", "catchPhrase", "bs"}
	postRequiredFields    = []string{"id", "title", "body"}
	commentRequiredFields = []string{"id", "name", "email", "body"}
)

// ValidateUser checks that a decoded JSON value conforms to the user
// document shape and returns it as a map. Checks are presence-only: apart
// from object/array-ness of nested containers, field values are never
// type-checked. That laxity (e.g. a string id passes this function, posts
// with numeric titles pass) is deliberate and kept from the original API
// contract; do not tighten it here.
//
// One normalization side effect: when the posts key is absent, it is set to
// an empty array on the candidate before returning.
func ValidateUser(candidate any) (map[string]any, error) {
	user, ok := candidate.(map[string]any)
	if !ok {
		return nil, domain.ValidationError("Invalid user data: User must be an object")
	}

	for _, field := range userRequiredFields {
		if _, present := user[field]; !present {
			return nil, domain.ValidationError(fmt.Sprintf("Invalid user data: Missing required field '%s'", field))
		}
	}

	address, ok := user["address"].(map[string]any)
	if !ok {
		return nil, domain.ValidationError("Invalid user data: Address must be an object")
	}
	for _, field := range addressRequiredFields {
		if _, present := address[field]; !present {
			return nil, domain.ValidationError(fmt.Sprintf("Invalid user data: Missing required address field '%s'", field))
		}
	}

	geo, ok := address["geo"].(map[string]any)
	if !ok {
		return nil, domain.ValidationError("Invalid user data: Geo must be an object")
	}
	if _, present := geo["lat"]; !present {
		return nil, domain.ValidationError("Invalid user data: Geo must include lat and lng fields")
	}
	if _, present := geo["lng"]; !present {
		return nil, domain.ValidationError("Invalid user data: Geo must include lat and lng fields")
	}

	company, ok := user["company"].(map[string]any)
	if !ok {
		return nil, domain.ValidationError("Invalid user data: Company must be an object")
	}
	for _, field := range companyRequiredFields {
		if _, present := company[field]; !present {
			return nil, domain.ValidationError(fmt.Sprintf("Invalid user data: Missing required company field '%s'", field))
		}
	}

	rawPosts, present := user["posts"]
	if !present {
		user["posts"] = []any{}
		return user, nil
	}

	posts, ok := rawPosts.([]any)
	if !ok {
		return nil, domain.ValidationError("Invalid user data: Posts must be an array")
	}
	for _, rawPost := range posts {
		post, ok := rawPost.(map[string]any)
		if !ok {
			return nil, domain.ValidationError("Invalid user data: Each post must be an object")
		}
		for _, field := range postRequiredFields {
			if _, present := post[field]; !present {
				return nil, domain.ValidationError(fmt.Sprintf("Invalid user data: Post missing required field '%s'", field))
			}
		}

		rawComments, present := post["comments"]
		if !present {
			continue
		}
		comments, ok := rawComments.([]any)
		if !ok {
			return nil, domain.ValidationError("Invalid user data: Comments must be an array")
		}
		for _, rawComment := range comments {
			comment, ok := rawComment.(map[string]any)
			if !ok {
				return nil, domain.ValidationError("Invalid user data: Each comment must be an object")
			}
			for _, field := range commentRequiredFields {
				if _, present := comment[field]; !present {
					return nil, domain.ValidationError(fmt.Sprintf("Invalid user data: Comment missing required field '%s'", field))
				}
			}
		}
	}

	return user, nil
}

// extractUserID pulls the numeric id out of a validated document so the
// gateway can key on it. The validator itself never checks the id's type;
// the coercion here is the one tightening over the original contract, forced
// by the typed BIGINT key column of the store.
func extractUserID(user map[string]any) (int64, error) {
	f, ok := user["id"].(float64)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, domain.ValidationError("Invalid user data: User id must be an integer")
	}
	return int64(f), nil
}
