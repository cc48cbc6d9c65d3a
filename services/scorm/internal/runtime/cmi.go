package runtime

import "strings"

// CMI element names the commit snapshot and restore path care about.
const (
	elemLessonStatus = "cmi.core.lesson_status"
	elemScoreRaw     = "cmi.core.score.raw"
	elemTotalTime    = "cmi.core.total_time"
	elemSuspendData  = "cmi.suspend_data"
	elemEntry        = "cmi.core.entry"
	elemExit         = "cmi.core.exit"
)

// Per-element defaults returned by GetValue when nothing is stored.
var cmiDefaults = map[string]string{
	elemLessonStatus:          "not attempted",
	elemEntry:                 "ab-initio",
	elemTotalTime:             "00:00:00.00",
	elemSuspendData:           "",
	elemScoreRaw:              "",
	"cmi.core.score.min":      "",
	"cmi.core.score.max":      "",
	"cmi.core.lesson_location": "",
	"cmi.core.lesson_mode":    "normal",
	"cmi.core.credit":         "credit",
	"cmi.core.student_id":     "",
	"cmi.core.student_name":   "",
	"cmi.launch_data":         "",
	"cmi.comments":            "",
	// SCORM 2004 names content may probe through the compatibility alias.
	"cmi.completion_status": "unknown",
	"cmi.success_status":    "unknown",
	"cmi.location":          "",
	"cmi.entry":             "ab-initio",
	"cmi.total_time":        "00:00:00.00",
}

// Structural keyword elements answered without touching the snapshot.
var childrenElements = map[string]string{
	"cmi.core._children":       "student_id,student_name,lesson_location,credit,lesson_status,entry,score,total_time,lesson_mode,exit,session_time",
	"cmi.core.score._children": "raw,min,max",
	"cmi.objectives._count":    "0",
	"cmi.interactions._count":  "0",
}

// Elements the LMS owns; content writes fail with 405.
var readOnlyElements = map[string]bool{
	"cmi.core.student_id":   true,
	"cmi.core.student_name": true,
	"cmi.core.credit":       true,
	"cmi.core.entry":        true,
	"cmi.core.total_time":   true,
	"cmi.core.lesson_mode":  true,
	"cmi.launch_data":       true,
}

// Elements content may write but never read back; reads fail with 406.
var writeOnlyElements = map[string]bool{
	"cmi.core.exit":         true,
	"cmi.core.session_time": true,
}

func validElement(element string) bool {
	return strings.HasPrefix(element, "cmi.")
}

func keywordElement(element string) bool {
	return strings.HasSuffix(element, "._children") || strings.HasSuffix(element, "._count") || strings.HasSuffix(element, "._version")
}
