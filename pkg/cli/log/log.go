/* Copyright 2025 Flockbook Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log prints colored console messages for the flockbook CLI
package log

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

const (
	debugEnvName  = "FLOCKBOOK_DEBUG"
	debugEnvValue = "1"
)

var (
	// ColorRed is a red foreground color
	ColorRed = color.New(color.FgRed)
	// ColorGreen is a green foreground color
	ColorGreen = color.New(color.FgGreen)
	// ColorYellow is a yellow foreground color
	ColorYellow = color.New(color.FgYellow)
	// ColorBlue is a blue foreground color
	ColorBlue = color.New(color.FgBlue)
	// ColorGray is a gray foreground color
	ColorGray = color.New(color.FgHiBlack)
)

var indent = "  "

// symbol is the colored mark leading a message
type symbol struct {
	char  string
	color *color.Color
}

var (
	symbolInfo    = symbol{"•", ColorBlue}
	symbolSuccess = symbol{"✔", ColorGreen}
	symbolWarn    = symbol{"•", ColorYellow}
	symbolError   = symbol{"⨯", ColorRed}
)

func (s symbol) print(msg string) {
	fmt.Fprintf(color.Output, "%s%s %s", indent, s.color.Sprint(s.char), msg)
}

// Info prints information
func Info(msg string) {
	symbolInfo.print(msg)
}

// Infof prints information with optional format verbs
func Infof(msg string, v ...interface{}) {
	symbolInfo.print(fmt.Sprintf(msg, v...))
}

// Success prints a success message
func Success(msg string) {
	symbolSuccess.print(msg)
}

// Successf prints a success message with optional format verbs
func Successf(msg string, v ...interface{}) {
	symbolSuccess.print(fmt.Sprintf(msg, v...))
}

// Plain prints a plain message without any prefix symbol
func Plain(msg string) {
	fmt.Fprintf(color.Output, "%s%s", indent, msg)
}

// Plainf prints a plain message without any prefix symbol. It takes optional format verbs.
func Plainf(msg string, v ...interface{}) {
	Plain(fmt.Sprintf(msg, v...))
}

// Warn prints a warning message
func Warn(msg string) {
	symbolWarn.print(msg)
}

// Warnf prints a warning message with optional format verbs
func Warnf(msg string, v ...interface{}) {
	symbolWarn.print(fmt.Sprintf(msg, v...))
}

// Error prints an error message
func Error(msg string) {
	symbolError.print(msg)
}

// Errorf prints an error message with optional format verbs
func Errorf(msg string, v ...interface{}) {
	symbolError.print(fmt.Sprintf(msg, v...))
}

// Pending prints the number of local changes waiting for a sync. Nothing
// is printed when there are none.
func Pending(collection string, dirty int) {
	if dirty == 0 {
		return
	}

	noun := "changes"
	if dirty == 1 {
		noun = "change"
	}

	Warnf("%s: %d unsynced %s\n", collection, dirty, noun)
}

// Askf prints a question with optional format verbs. The mark is gray when
// the answer is masked.
func Askf(msg string, masked bool, v ...interface{}) {
	mark := ColorGreen
	if masked {
		mark = ColorGray
	}

	fmt.Fprintf(color.Output, "%s%s %s: ", indent, mark.Sprint("[?]"), fmt.Sprintf(msg, v...))
}

func isDebug() bool {
	return os.Getenv(debugEnvName) == debugEnvValue
}

// Debug prints to the console if FLOCKBOOK_DEBUG is set
func Debug(msg string, v ...interface{}) {
	if isDebug() {
		fmt.Fprintf(color.Output, "%s %s", ColorGray.Sprint("DEBUG:"), fmt.Sprintf(msg, v...))
	}
}
