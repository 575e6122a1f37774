// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smtpserver

// AuthGate validates SMTP credentials against the single configured
// username/password pair. One shared secret, compared by exact string
// equality — a deliberate simplicity trade-off for a trusted internal
// network, not an account system.
type AuthGate struct {
	username string
	password string
}

// NewAuthGate creates a gate for the configured credential pair.
func NewAuthGate(username, password string) *AuthGate {
	return &AuthGate{username: username, password: password}
}

// Check reports whether the supplied credentials match the configured pair.
func (g *AuthGate) Check(username, password string) bool {
	return username == g.username && password == g.password
}
