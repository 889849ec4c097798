package utils

//SequenceLength is the number of frames (rows) in one feature sequence fed to the model
const SequenceLength = 30

//KeypointsNum is the number of landmarks taken from each frame
const KeypointsNum = 12

//ValuesPerKeypoint is x, y, z and visibility
const ValuesPerKeypoint = 4

//FeaturesNum is the width of one keypoint vector (one row of a feature sequence)
const FeaturesNum = KeypointsNum * ValuesPerKeypoint

//MinFrames is the minimum number of captured frames for a repetition to be emitted
const MinFrames = 10

//CSVColumns is the column count of one dataset row: flattened sequence followed by the label
const CSVColumns = SequenceLength*FeaturesNum + 1

//GoodFormClass is the class index of a correct repetition in the binary model
const GoodFormClass = 1

//BadFormClass is the class index of an incorrect repetition in the binary model
const BadFormClass = 0

//IncorrectMarker is looked up (case insensitive) in source video names to label them as bad form
const IncorrectMarker = "incorrect"

//DefaultBinaryLabels are the names of the binary model classes, by class index
var DefaultBinaryLabels = []string{"incorrect", "correct"}

//GoodFeedback is shown after a repetition classified as good form
const GoodFeedback = "Good squat!"

//BadFeedback is shown after a repetition classified as bad form
const BadFeedback = "Bad form!"
