/* Copyright 2025 Dnote Authors
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

package app

import (
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// incrementMaxUSN increments the server's max_usn by 1 and returns the new,
// incremented max_usn. The row stays locked until tx finishes, so usns become
// visible in the order they are handed out.
func incrementMaxUSN(tx *gorm.DB) (int64, error) {
	if err := tx.Model(&database.System{}).Where("key = ?", database.SystemMaxUSN).Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, errors.Wrap(err, "incrementing max_usn")
	}

	var s database.System
	if err := tx.Where("key = ?", database.SystemMaxUSN).First(&s).Error; err != nil {
		return 0, errors.Wrap(err, "getting the updated max_usn")
	}

	return s.Value, nil
}
