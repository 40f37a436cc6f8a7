package repository

import (
	alertRepo "orgalerts/database/repository/alert"
	followerRepo "orgalerts/database/repository/follower"
	userRepo "orgalerts/database/repository/user"
)

// Re-export the FollowerRepository interfaces and constructors.
type FollowerRepository = followerRepo.FollowerRepository

type LegacyFollowerRepository = followerRepo.LegacyFollowerRepository

var NewMongoFollowerRepo = followerRepo.NewMongoFollowerRepo

var NewMongoLegacyFollowerRepo = followerRepo.NewMongoLegacyFollowerRepo

// Re-export the alert repositories.
type AlertRepository = alertRepo.AlertRepository

type ScheduledAlertRepository = alertRepo.ScheduledAlertRepository

var NewMongoAlertRepo = alertRepo.NewMongoAlertRepo

var NewMongoScheduledAlertRepo = alertRepo.NewMongoScheduledAlertRepo

// Re-export the UserRepository interface and constructor.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepo = userRepo.NewMongoUserRepo
