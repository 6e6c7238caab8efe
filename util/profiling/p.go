// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package profiling captures CPU profiles with pprof.
package profiling

import (
	"os"
	"runtime/pprof"

	"github.com/ebay/kbcompress/util/errors"
	log "github.com/sirupsen/logrus"
)

// StartCPUProfile starts writing a CPU profile to the named file. The caller
// must call the returned stop function, which finishes the profile and closes
// the file. Only one profile can be running at a time; starting another one
// returns an error.
func StartCPUProfile(outputFilename string) (stop func() error, err error) {
	f, err := os.Create(outputFilename)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		log.Errorf("CPU profiling error: %s", err)
		return nil, errors.Any(err, f.Close())
	}
	log.Infof("Started CPU profiling to %s", outputFilename)
	return func() error {
		pprof.StopCPUProfile()
		log.Infof("Completed CPU profile to %s", outputFilename)
		return f.Close()
	}, nil
}
