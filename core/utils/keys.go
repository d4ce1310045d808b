package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Course locations use the LMS opaque-key formats:
//
//	course key: course-v1:Org+Course+Run
//	usage key:  block-v1:Org+Course+Run+type@category+block@name
var (
	courseKeyRe = regexp.MustCompile(`^course-v1:[^+\s]+\+[^+\s]+\+[^+\s]+$`)
	usageKeyRe  = regexp.MustCompile(`^block-v1:[^+\s]+\+[^+\s]+\+[^+\s]+(\+[a-z_]+@[^+\s]+)+$`)
)

func IsValidCourseKey(key string) bool {
	return courseKeyRe.MatchString(key)
}

func IsValidUsageKey(key string) bool {
	return usageKeyRe.MatchString(key)
}

// CourseKeyFromUsageKey derives the owning course key from a usage key.
func CourseKeyFromUsageKey(usageKey string) (string, error) {
	if !IsValidUsageKey(usageKey) {
		return "", fmt.Errorf("invalid usage key: %q", usageKey)
	}
	body := strings.TrimPrefix(usageKey, "block-v1:")
	parts := strings.Split(body, "+")
	return "course-v1:" + strings.Join(parts[:3], "+"), nil
}

func ToString(v any) string {
	return fmt.Sprintf("%v", v)
}
