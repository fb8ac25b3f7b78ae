// Package budget reports the process memory ceiling and the live heap usage
// that image decode admission is measured against.
//
// The ceiling is configured as a string such as "256M", "1G" or "-1"
// (unlimited). Unit suffixes K, M and G are base 1024. An empty or malformed
// ceiling falls back to DefaultLimit rather than blocking all decodes.
package budget
