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

// Package consts provides definitions of constants
package consts

var (
	// AppDirName is the name of the directories containing flockbook files
	AppDirName = "flockbook"
	// DBFileName is a filename for the flockbook SQLite database
	DBFileName = "flockbook.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "flockbookrc"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "FLOCKBOOK_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "txt"

	// EnvRemoteURL overrides the remote url in the config file
	EnvRemoteURL = "FLOCKBOOK_REMOTE_URL"
	// EnvRemoteKey overrides the remote api key in the config file
	EnvRemoteKey = "FLOCKBOOK_REMOTE_KEY"
	// EnvDebug enables debug output
	EnvDebug = "FLOCKBOOK_DEBUG"

	// SystemLastUpgrade is the timestamp at which the system most recently checked for an upgrade
	SystemLastUpgrade = "last_upgrade"
	// SystemSessionUser is the username of the signed in user
	SystemSessionUser = "session_user"
	// SystemSessionExpiry is the timestamp at which the session expires
	SystemSessionExpiry = "session_expiry"
)
