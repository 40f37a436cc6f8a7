package memory

import (
	alertRepo "orgalerts/database/repository/alert"
	followerRepo "orgalerts/database/repository/follower"
	userRepo "orgalerts/database/repository/user"
)

var (
	_ followerRepo.FollowerRepository       = (*FollowerRepo)(nil)
	_ followerRepo.LegacyFollowerRepository = (*LegacyRepo)(nil)
	_ userRepo.UserRepository               = (*UserRepo)(nil)
	_ alertRepo.AlertRepository             = (*AlertRepo)(nil)
	_ alertRepo.ScheduledAlertRepository    = (*ScheduledAlertRepo)(nil)
)
